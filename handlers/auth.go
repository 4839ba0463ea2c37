package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"htalk-server/config"
	"htalk-server/database"
	"htalk-server/middleware"
	"htalk-server/models"
	"htalk-server/services"
)

// MailSender 确认邮件发送能力，测试中可替换
type MailSender interface {
	SendRegisterConfirm(to, confirmURL string) error
	SendLoginConfirm(to, loginURL string) error
}

// AuthHandler 注册登录相关接口
type AuthHandler struct {
	mailer MailSender
	audit  *services.AuditService
}

func NewAuthHandler(mailer MailSender, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{mailer: mailer, audit: audit}
}

type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email,max=32"`
	Passwd      string `json:"passwd" binding:"required,min=8,max=32"`
	PasswdAgain string `json:"passwd_again" binding:"required,eqfield=Passwd"`
}

type PasswdLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Passwd   string `json:"passwd" binding:"required"`
	Remember bool   `json:"remember"`
}

type EmailLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Remember bool   `json:"remember"`
}

type ChangePasswdRequest struct {
	OldPasswd   string `json:"old_passwd" binding:"required"`
	Passwd      string `json:"passwd" binding:"required,min=8,max=32"`
	PasswdAgain string `json:"passwd_again" binding:"required,eqfield=Passwd"`
}

type SessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register 提交注册
// 只签发确认令牌并发送邮件，用户行在确认时才创建
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "请求参数错误",
			"error":   err.Error(),
		})
		return
	}

	// 提前拦截已注册邮箱，确认时仍会再查一次
	var existing models.User
	if err := database.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "邮箱已被注册",
		})
		return
	}

	passwdHash, err := models.HashPasswd(req.Passwd)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "密码加密失败",
		})
		return
	}

	token, err := services.CreateRegisterToken(req.Email, passwdHash)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "生成令牌失败",
		})
		return
	}

	confirmURL := fmt.Sprintf("%s/api/auth/confirm/register?token=%s",
		config.GetConfig().SiteURL, token)
	if err := h.mailer.SendRegisterConfirm(req.Email, confirmURL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "确认邮件发送失败",
		})
		return
	}

	h.audit.Record(0, req.Email, "register_submit", "", c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "注册提交成功, 请进入邮箱点击确认注册链接",
	})
}

// ConfirmRegister 注册确认，创建用户
// 第一个确认注册的用户自动获得 admin 角色
// 并发注册同时读到空表时该引导逻辑存在竞态，见 DESIGN.md
func (h *AuthHandler) ConfirmRegister(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "无效的令牌",
		})
		return
	}

	email, passwdHash, err := services.ParseRegisterToken(tokenString)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "无效的令牌",
		})
		return
	}

	// 令牌签发后邮箱可能已被他人注册
	var existing models.User
	if err := database.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "无效的令牌",
		})
		return
	}

	roleName := "default"
	var userCount int64
	database.DB.Model(&models.User{}).Count(&userCount)
	if userCount == 0 {
		roleName = "admin"
	}

	var role models.Role
	if err := database.DB.Where("name = ?", roleName).First(&role).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "预设角色缺失",
		})
		return
	}

	user := models.User{
		Email:      email,
		PasswdHash: passwdHash,
		RoleID:     role.ID,
		Role:       role,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 确认瞬间的并发注册，唯一索引兜底
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"message": "邮箱已被注册",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "创建用户失败",
		})
		return
	}

	h.audit.Record(user.ID, user.Email, "register_confirm", roleName, c.ClientIP())

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": fmt.Sprintf("用户%s认证完成", email),
		"data":    &user,
	})
}

// PasswdLogin 密码登录
func (h *AuthHandler) PasswdLogin(c *gin.Context) {
	var req PasswdLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "请求参数错误",
			"error":   err.Error(),
		})
		return
	}

	var user models.User
	if err := database.DB.Preload("Role").Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "账号或密码错误",
		})
		return
	}

	if !user.Role.HasPermission(models.PermUsable) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "账号已被禁用",
		})
		return
	}

	if !user.CheckPasswd(req.Passwd) {
		h.audit.Record(user.ID, user.Email, "passwd_login_fail", "", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "账号或密码错误",
		})
		return
	}

	token, _, err := services.CreateSessionToken(user.ID, user.Email, req.Remember)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "生成令牌失败",
		})
		return
	}

	h.audit.Record(user.ID, user.Email, "passwd_login", "", c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "登录成功",
		"data": SessionResponse{
			Token: token,
			User:  &user,
		},
	})
}

// EmailLogin 免密登录：发送登录确认邮件
func (h *AuthHandler) EmailLogin(c *gin.Context) {
	var req EmailLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "请求参数错误",
			"error":   err.Error(),
		})
		return
	}

	var user models.User
	if err := database.DB.Preload("Role").Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "账号不存在",
		})
		return
	}

	if !user.Role.HasPermission(models.PermUsable) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "账号已被禁用",
		})
		return
	}

	token, err := services.CreateLoginToken(user.Email, req.Remember)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "生成令牌失败",
		})
		return
	}

	loginURL := fmt.Sprintf("%s/api/auth/confirm/login?token=%s",
		config.GetConfig().SiteURL, token)
	if err := h.mailer.SendLoginConfirm(user.Email, loginURL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "确认邮件发送失败",
		})
		return
	}

	h.audit.Record(user.ID, user.Email, "email_login_submit", "", c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "登录确认邮件已发送至邮箱",
	})
}

// ConfirmLogin 免密登录确认，建立会话
func (h *AuthHandler) ConfirmLogin(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "无效的令牌",
		})
		return
	}

	email, remember, err := services.ParseLoginToken(tokenString)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "无效的令牌",
		})
		return
	}

	var user models.User
	if err := database.DB.Preload("Role").Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "无效的令牌",
		})
		return
	}

	if !user.Role.HasPermission(models.PermUsable) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "账号已被禁用",
		})
		return
	}

	token, _, err := services.CreateSessionToken(user.ID, user.Email, remember)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "生成令牌失败",
		})
		return
	}

	h.audit.Record(user.ID, user.Email, "email_login_confirm", "", c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "登录成功",
		"data": SessionResponse{
			Token: token,
			User:  &user,
		},
	})
}

// ChangePasswd 修改密码
func (h *AuthHandler) ChangePasswd(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	var req ChangePasswdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "请求参数错误",
			"error":   err.Error(),
		})
		return
	}

	if !user.CheckPasswd(req.OldPasswd) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "旧密码错误",
		})
		return
	}

	if req.Passwd == req.OldPasswd {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "新旧密码不能相同",
		})
		return
	}

	passwdHash, err := models.HashPasswd(req.Passwd)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "密码加密失败",
		})
		return
	}

	user.PasswdHash = passwdHash
	if err := database.DB.Save(user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "密码修改失败",
		})
		return
	}

	h.audit.Record(user.ID, user.Email, "change_passwd", "", c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "密码修改成功，请重新登录",
	})
}

// Me 获取当前用户信息
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}
