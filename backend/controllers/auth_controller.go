package controllers

import (
	"errors"
	"strings"

	"aptiportal/backend/config"
	"aptiportal/backend/models"
	"aptiportal/backend/utils"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAuthController(db *gorm.DB, cfg *config.Config) *AuthController {
	return &AuthController{DB: db, Cfg: cfg}
}

// GoogleSignIn verifies a Google ID token, upserts the user and issues
// a portal JWT. Emails on the configured admin domain get the admin
// role; everyone else is a student.
func (ac *AuthController) GoogleSignIn(c *fiber.Ctx) error {
	var input struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&input); err != nil || input.Token == "" {
		return utils.BadRequest(c, "Token is required")
	}

	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(input.Token, []string{ac.Cfg.GoogleClientID}); err != nil {
		return utils.Unauthorized(c, "Invalid Google token")
	}
	claims, err := googleAuthIDTokenVerifier.Decode(input.Token)
	if err != nil {
		return utils.Unauthorized(c, "Invalid Google token")
	}

	var user models.User
	err = ac.DB.Where("email = ?", claims.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Name:  claims.Name,
			Email: claims.Email,
			Role:  ac.roleFor(claims.Email),
		}
		if err := ac.DB.Create(&user).Error; err != nil {
			return utils.InternalServerError(c, "Failed to create user")
		}
	} else if err != nil {
		return utils.InternalServerError(c, "Failed to look up user")
	}

	token, err := utils.GenerateJWTToken(user.ID, user.Role, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Failed to issue token")
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func (ac *AuthController) roleFor(email string) string {
	if ac.Cfg.AdminDomain != "" && strings.HasSuffix(email, "@"+ac.Cfg.AdminDomain) {
		return "admin"
	}
	return "student"
}
