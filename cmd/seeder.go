package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the baseline catalog",
	Long:  `Seed the permission catalog, the admins role and a bootstrap administrator account.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"user_roles", "role_permissions", "user_tokens", "resource_permissions", "roles", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		permissions := []struct {
			Resource string
			Action   string
		}{
			{"admin", "all"},
			{"users", "manage"},
			{"roles", "manage"},
			{"permissions", "manage"},
		}

		for _, p := range permissions {
			var pid int64
			row := db.Raw("SELECT id FROM resource_permissions WHERE resource = ? AND action = ?", p.Resource, p.Action).Row()
			if err := row.Scan(&pid); err != nil {
				if err := db.Exec("INSERT INTO resource_permissions (resource, action, created_at) VALUES (?, ?, now())", p.Resource, p.Action).Error; err != nil {
					log.Fatalf("failed to insert permission %s:%s: %v", p.Resource, p.Action, err)
				}
				fmt.Printf("Seeded permission: %s:%s\n", p.Resource, p.Action)
			}
		}

		adminRole := "admins"
		var roleID int64
		if err := db.Raw("SELECT id FROM roles WHERE name = ?", adminRole).Row().Scan(&roleID); err != nil {
			if err := db.Exec("INSERT INTO roles (name, created_at) VALUES (?, now())", adminRole).Error; err != nil {
				log.Fatalf("failed to insert admins role: %v", err)
			}
			if err := db.Raw("SELECT id FROM roles WHERE name = ?", adminRole).Row().Scan(&roleID); err != nil {
				log.Fatalf("failed to lookup admins role id: %v", err)
			}
			fmt.Println("Seeded role:", adminRole)
		}

		for _, p := range permissions {
			var pid int64
			if err := db.Raw("SELECT id FROM resource_permissions WHERE resource = ? AND action = ?", p.Resource, p.Action).Row().Scan(&pid); err != nil {
				log.Fatalf("permission not found after insert %s:%s: %v", p.Resource, p.Action, err)
			}

			var exists int
			if err := db.Raw("SELECT 1 FROM role_permissions WHERE role_id = ? AND permission_id = ?", roleID, pid).Row().Scan(&exists); err == nil {
				if err := db.Exec("UPDATE role_permissions SET granted = true WHERE role_id = ? AND permission_id = ?", roleID, pid).Error; err != nil {
					log.Fatalf("failed to regrant permission %s:%s: %v", p.Resource, p.Action, err)
				}
				continue
			}

			if err := db.Exec("INSERT INTO role_permissions (role_id, permission_id, granted, created_at) VALUES (?, ?, true, now())", roleID, pid).Error; err != nil {
				log.Fatalf("failed to grant permission %s:%s to admins role: %v", p.Resource, p.Action, err)
			}
		}

		fmt.Println("Granted full catalog to role:", adminRole)

		seedAdminUser(db, roleID)
	},
}

func seedAdminUser(db *gorm.DB, roleID int64) {
	adminUsername := "admin"
	adminEmail := "admin@localhost"
	adminName := "Administrator"

	password := "ChangeMe123"
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash bootstrap password: %v", err)
	}

	var adminID int64
	if err := db.Raw("SELECT id FROM users WHERE username = ?", adminUsername).Row().Scan(&adminID); err != nil {
		insert := `INSERT INTO users
			(username, email, name, password_hash, enabled, account_non_expired, account_non_locked, credentials_non_expired, login_attempts, created_at, updated_at)
			VALUES (?, ?, ?, ?, true, true, true, true, 0, now(), now())`
		if err := db.Exec(insert, adminUsername, adminEmail, adminName, string(hash)).Error; err != nil {
			log.Fatalf("failed to insert admin user: %v", err)
		}
		if err := db.Raw("SELECT id FROM users WHERE username = ?", adminUsername).Row().Scan(&adminID); err != nil {
			log.Fatalf("failed to lookup admin user id: %v", err)
		}
		fmt.Println("Seeded admin user:", adminUsername)
		fmt.Println("Bootstrap password:", password, "(change it after first login)")
	} else {
		fmt.Println("admin user already exists; will ensure role assignment")
	}

	var exists int
	if err := db.Raw("SELECT 1 FROM user_roles WHERE user_id = ? AND role_id = ?", adminID, roleID).Row().Scan(&exists); err == nil {
		return
	}

	if err := db.Exec("INSERT INTO user_roles (user_id, role_id, created_at) VALUES (?, ?, now())", adminID, roleID).Error; err != nil {
		log.Fatalf("failed to assign admins role to admin user: %v", err)
	}

	fmt.Println("Assigned admins role to admin user")
}
