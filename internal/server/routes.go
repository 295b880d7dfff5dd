package routes

import (
	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.Engine) {
	// Inicializar repositorios
	middleware.InitAuth()
	middleware.InitTrading()

	// Rutas de usuarios
	users := router.Group("/users")
	{
		users.POST("/register", middleware.Register)
		users.POST("/login", middleware.Login)
		users.POST("/request-reset-password", middleware.RequestResetPassword)
		users.POST("/reset-password", middleware.ResetPassword)

		users.GET("/profile", middleware.AuthMiddleware(), middleware.GetProfile)
		users.PUT("/profile", middleware.AuthMiddleware(), middleware.UpdateProfile)
	}

	// Rutas de monedas y trading (requieren token)
	coins := router.Group("/coins")
	coins.Use(middleware.AuthMiddleware())
	{
		coins.GET("", middleware.GetCoins)
		coins.GET("/top", middleware.GetTopCoins)
		coins.GET("/search", middleware.SearchCoins)

		coins.POST("/buy", middleware.BuyCoin)
		coins.POST("/sell", middleware.SellCoin)
		coins.POST("/convert", middleware.ConvertCoin)
		coins.GET("/portfolio", middleware.GetPortfolio)
		coins.GET("/transactions", middleware.GetTransactions)

		// Debe registrarse después de las rutas estáticas del grupo
		coins.GET("/:coinId", middleware.GetCoin)
	}

	// Rutas de mantenimiento del catálogo (requieren Admin-Key)
	maintenance := router.Group("/coins")
	maintenance.Use(middleware.AdminAuth())
	{
		maintenance.POST("/refresh-prices", middleware.RefreshPrices)
		maintenance.POST("/add-top-coins", middleware.AddTopCoins)
		maintenance.GET("/price-status", middleware.PriceStatus)
		maintenance.POST("/start-auto-update", middleware.StartAutoUpdate)
		maintenance.POST("/stop-auto-update", middleware.StopAutoUpdate)
	}

	// Rutas de administración de usuarios
	admin := router.Group("/admin")
	admin.Use(middleware.AdminAuth())
	{
		admin.GET("/users", middleware.GetUsers)
		admin.GET("/users/:id", middleware.GetUser)
		admin.DELETE("/users/:id", middleware.DeleteUserByAdmin)
	}
}
