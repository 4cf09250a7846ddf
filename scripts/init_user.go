package main

import (
	"fmt"
	"log"

	"github.com/daypilot/internal/config"
	"github.com/daypilot/internal/db"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.Load()

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	// 检查是否已存在用户
	var count int64
	db.DB.Model(&db.User{}).Count(&count)
	if count > 0 {
		fmt.Println("用户已存在，无需初始化")
		return
	}

	// 创建默认管理员用户
	password := "admin123" // 默认密码
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("密码加密失败:", err)
	}

	user := db.User{
		Username: "admin",
		Password: string(hashedPassword),
	}

	if err := db.DB.Create(&user).Error; err != nil {
		log.Fatal("创建用户失败:", err)
	}

	// 顺带写入默认商店目录，便于本地试用购物优化
	if err := db.SeedStores(); err != nil {
		log.Fatal("商店目录初始化失败:", err)
	}

	fmt.Println("默认用户 admin 已创建，请尽快修改密码")
}
