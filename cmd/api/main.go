package main

import (
	"log"
	"os"
	"time"

	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/database"
	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/middleware"
	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/repository"
	routes "github.com/AgusMolinaCode/CryptoSim_Api.git/internal/server"
	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// Intervalo por defecto del refresco de precios
const defaultRefreshInterval = 5 * time.Minute

func main() {
	// Cargar variables de entorno
	if err := godotenv.Load(); err != nil {
		log.Printf("No se pudo cargar el archivo .env: %v", err)
	}

	// Crear el router de Gin
	router := gin.Default()

	// Configurar CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"http://localhost:3000"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "Admin-Key"}
	config.AllowCredentials = true
	config.ExposeHeaders = []string{"Content-Length"}
	router.Use(cors.New(config))

	// Inicializar base de datos
	if err := database.InitDB(); err != nil {
		log.Fatalf("Error al inicializar la base de datos: %v", err)
	}
	defer database.DB.Close()

	// Configurar las rutas (inicializa los repositorios y el adaptador de precios)
	routes.RegisterRoutes(router)

	// Iniciar el servicio de actualización de precios
	interval := defaultRefreshInterval
	if value := os.Getenv("PRICE_REFRESH_INTERVAL"); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			log.Printf("PRICE_REFRESH_INTERVAL inválido (%q), se usa el valor por defecto", value)
		} else {
			interval = parsed
		}
	}

	priceUpdater := services.NewPriceUpdater(
		interval,
		repository.NewCoinRepository(database.DB),
		middleware.GetPriceService(),
	)
	priceUpdater.Start()
	defer priceUpdater.Stop()

	// Hacer disponible el actualizador de precios para los handlers
	middleware.SetPriceUpdater(priceUpdater)

	// Iniciar el servidor
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Error al iniciar el servidor: %v", err)
	}
}
