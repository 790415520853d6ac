package services

import (
	"errors"
	"fmt"
	"ipatrol-http-service/internal/domain/models"
	"ipatrol-http-service/internal/infrastructure/config"
	"ipatrol-http-service/pkg/utils"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// InterfaceJWTService 定义JWT服务接口
type InterfaceJWTService interface {
	GenerateToken(userID uint, role string, companyID uint) (string, error)
	ValidateToken(tokenString string) (*jwt.Token, error)
	ExtractClaims(tokenString string) (*JWTClaims, error)
	Login(phone, password string) (string, *models.User, error)
}

// JWTClaims 定义JWT令牌的声明结构
type JWTClaims struct {
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
	CompanyID uint   `json:"company_id"` // 所属保安公司ID，用于多租户隔离
	jwt.RegisteredClaims
}

// JWTService 提供JWT相关服务
type JWTService struct {
	DB        *gorm.DB
	secretKey string
	issuer    string
}

// NewJWTService 创建一个新的JWT服务
func NewJWTService(cfg *config.Config, db *gorm.DB) InterfaceJWTService {
	return &JWTService{
		DB:        db,
		secretKey: cfg.JWTSecretKey,
		issuer:    "ipatrol-http-service",
	}
}

// GenerateToken 生成JWT令牌
func (s *JWTService) GenerateToken(userID uint, role string, companyID uint) (string, error) {
	// 令牌有效期为24小时
	expirationTime := time.Now().Add(24 * time.Hour)

	claims := &JWTClaims{
		UserID:    userID,
		Role:      role,
		CompanyID: companyID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secretKey))
}

// ValidateToken 验证JWT令牌
func (s *JWTService) ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secretKey), nil
	})
}

// ExtractClaims 从令牌中提取声明
func (s *JWTService) ExtractClaims(tokenString string) (*JWTClaims, error) {
	token, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	jwtClaims := &JWTClaims{}

	// 提取用户ID
	if userID, ok := claims["user_id"].(float64); ok {
		jwtClaims.UserID = uint(userID)
	}

	// 提取角色
	if role, ok := claims["role"].(string); ok {
		jwtClaims.Role = role
	}

	// 提取公司ID
	if companyID, ok := claims["company_id"].(float64); ok {
		jwtClaims.CompanyID = uint(companyID)
	}

	if iss, ok := claims["iss"].(string); ok {
		jwtClaims.Issuer = iss
	}

	return jwtClaims, nil
}

// Login 校验手机号和密码，成功后签发令牌
func (s *JWTService) Login(phone, password string) (string, *models.User, error) {
	var user models.User
	if err := s.DB.Where("phone = ?", phone).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, errors.New("用户不存在")
		}
		return "", nil, err
	}

	if user.Status == models.UserStatusDisabled {
		return "", nil, errors.New("用户已被停用")
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return "", nil, errors.New("用户密码错误")
	}

	token, err := s.GenerateToken(user.ID, string(user.Role), user.CompanyID)
	if err != nil {
		return "", nil, err
	}

	return token, &user, nil
}
