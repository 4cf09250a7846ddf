package handler

import (
	"net/http"

	"github.com/daypilot/internal/db"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login 处理用户登录请求，校验通过后在会话中记录用户身份
func Login(c *gin.Context) {
	var payload loginPayload
	if !bindJSON(c, &payload, "请求体格式错误") {
		return
	}

	// 查找用户
	var user db.User
	if err := db.DB.Where("username = ?", payload.Username).First(&user).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	// 设置会话
	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Set("username", user.Username)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": user.Username})
}

// Logout 处理用户登出
func Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"message": "已退出登录"})
}

// 认证中间件写入请求上下文的键
const (
	ctxUserIDKey   = "user_id"
	ctxUsernameKey = "username"
)

// AuthRequired 是一个简单的认证中间件，未登录时返回 401，
// 登录后把用户身份放进请求上下文供各 handler 读取
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get("user_id").(uint)
		if !ok {
			respondError(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}

		c.Set(ctxUserIDKey, userID)
		if name, ok := session.Get("username").(string); ok {
			c.Set(ctxUsernameKey, name)
		}
		c.Next()
	}
}

// currentUserID 取出已认证用户 ID
func currentUserID(c *gin.Context) uint {
	if id, ok := c.Get(ctxUserIDKey); ok {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// currentUsername 取出已认证用户名
func currentUsername(c *gin.Context) string {
	if name, ok := c.Get(ctxUsernameKey); ok {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return ""
}
