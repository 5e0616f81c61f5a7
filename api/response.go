package api

import (
	"github.com/gin-gonic/gin"
)

// 管理类接口使用统一信封 {status, message, data}

func RespondSuccess(c *gin.Context, data interface{}) {
	c.JSON(200, gin.H{
		"status":  "success",
		"message": "",
		"data":    data,
	})
}

func RespondSuccessMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(200, gin.H{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"status":  "error",
		"message": message,
	})
}

// 更新器与旧版管理接口沿用 {error: message} 格式，客户端依赖该结构

func RespondPlainError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

func AbortPlainError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

const (
	MsgInternalError = "服务器内部错误"
	MsgUnauthorized  = "未授权访问"
	MsgTooManyTries  = "尝试次数过多，请稍后再试"
	MsgNotFound      = "接口不存在"
)
