package middleware_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/database"
	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/middleware"
	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/models"
	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/repository"
	routes "github.com/AgusMolinaCode/CryptoSim_Api.git/internal/server"
	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testRouter   *gin.Engine
	fakeProvider *httptest.Server
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	os.Setenv("JWT_SECRET", "secreto-de-test")
	os.Setenv("ADMIN_SECRET_KEY", "clave-admin")

	// Proveedor de precios falso para no llamar a la API real
	fakeProvider = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	os.Setenv("PRICE_API_URL", fakeProvider.URL)

	dir, err := os.MkdirTemp("", "cryptosim-test")
	if err != nil {
		fmt.Printf("No se pudo crear el directorio temporal: %v\n", err)
		os.Exit(1)
	}
	os.Setenv("DATABASE_PATH", filepath.Join(dir, "test.db"))

	if err := database.InitDB(); err != nil {
		fmt.Printf("No se pudo inicializar la base de datos: %v\n", err)
		os.Exit(1)
	}

	testRouter = gin.New()
	routes.RegisterRoutes(testRouter)

	updater := services.NewPriceUpdater(
		time.Minute,
		repository.NewCoinRepository(database.DB),
		middleware.GetPriceService(),
	)
	middleware.SetPriceUpdater(updater)

	code := m.Run()

	database.DB.Close()
	fakeProvider.Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

func performRequest(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

func registerTestUser(t *testing.T, email string) string {
	w := performRequest(t, "POST", "/users/register", map[string]interface{}{
		"name":     "Usuario de prueba",
		"email":    email,
		"password": "clave123",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var response struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotEmpty(t, response.Token)
	return response.Token
}

func authHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func seedTestCoin(t *testing.T, coinID string, price float64) {
	repo := repository.NewCoinRepository(database.DB)
	require.NoError(t, repo.UpsertCoin(&models.Coin{
		ID:          coinID,
		Name:        coinID,
		Symbol:      coinID[:3],
		Price:       price,
		LastUpdated: time.Now(),
	}))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	registerTestUser(t, "duplicado@test.com")

	// El segundo registro con el mismo email falla
	w := performRequest(t, "POST", "/users/register", map[string]interface{}{
		"name":     "Otro usuario",
		"email":    "duplicado@test.com",
		"password": "otraclave",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// El primer usuario sigue pudiendo iniciar sesión
	w = performRequest(t, "POST", "/users/login", map[string]interface{}{
		"email":    "duplicado@test.com",
		"password": "clave123",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginBadCredentials(t *testing.T) {
	registerTestUser(t, "login@test.com")

	w := performRequest(t, "POST", "/users/login", map[string]interface{}{
		"email":    "login@test.com",
		"password": "clave-incorrecta",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(t, "POST", "/users/login", map[string]interface{}{
		"email":    "noexiste@test.com",
		"password": "clave123",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileRequiresToken(t *testing.T) {
	token := registerTestUser(t, "perfil@test.com")

	w := performRequest(t, "GET", "/users/profile", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performRequest(t, "GET", "/users/profile", nil, authHeader(token))
	require.Equal(t, http.StatusOK, w.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "perfil@test.com", user.Email)
}

func TestBuySellFlow(t *testing.T) {
	seedTestCoin(t, "bitcoin", 100)
	token := registerTestUser(t, "trader@test.com")

	// Compra: 2 unidades a 100 dejan el saldo en 9800
	w := performRequest(t, "POST", "/coins/buy", map[string]interface{}{
		"coinId": "bitcoin",
		"amount": 2,
	}, authHeader(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var buyResponse struct {
		Balance float64        `json:"balance"`
		Holding models.Holding `json:"holding"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &buyResponse))
	assert.InDelta(t, 9800, buyResponse.Balance, 1e-9)
	assert.InDelta(t, 2, buyResponse.Holding.Amount, 1e-9)

	// El portafolio refleja la compra
	w = performRequest(t, "GET", "/coins/portfolio", nil, authHeader(token))
	require.Equal(t, http.StatusOK, w.Code)

	var portfolio models.Portfolio
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &portfolio))
	assert.InDelta(t, 9800, portfolio.Balance, 1e-9)
	require.Len(t, portfolio.Holdings, 1)
	assert.Equal(t, "bitcoin", portfolio.Holdings[0].CoinID)

	// Vender más de lo que se tiene falla
	w = performRequest(t, "POST", "/coins/sell", map[string]interface{}{
		"coinId": "bitcoin",
		"amount": 5,
	}, authHeader(token))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Comprar una moneda desconocida devuelve 404
	w = performRequest(t, "POST", "/coins/buy", map[string]interface{}{
		"coinId": "moneda-inexistente",
		"amount": 1,
	}, authHeader(token))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// El historial tiene una sola transacción
	w = performRequest(t, "GET", "/coins/transactions", nil, authHeader(token))
	require.Equal(t, http.StatusOK, w.Code)

	var transactions []models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &transactions))
	require.Len(t, transactions, 1)
	assert.Equal(t, models.TransactionBuy, transactions[0].Type)
}

func TestConvertFlow(t *testing.T) {
	seedTestCoin(t, "litecoin", 10)
	seedTestCoin(t, "cardano", 5)
	token := registerTestUser(t, "conversor@test.com")

	w := performRequest(t, "POST", "/coins/buy", map[string]interface{}{
		"coinId": "litecoin",
		"amount": 3,
	}, authHeader(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = performRequest(t, "POST", "/coins/convert", map[string]interface{}{
		"fromCoinId": "litecoin",
		"toCoinId":   "cardano",
		"amount":     2,
	}, authHeader(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var convertResponse struct {
		FromHolding *models.Holding `json:"from_holding"`
		ToHolding   *models.Holding `json:"to_holding"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &convertResponse))
	require.NotNil(t, convertResponse.ToHolding)
	assert.InDelta(t, 4, convertResponse.ToHolding.Amount, 1e-9)
	require.NotNil(t, convertResponse.FromHolding)
	assert.InDelta(t, 1, convertResponse.FromHolding.Amount, 1e-9)

	// Convertir a la misma moneda falla
	w = performRequest(t, "POST", "/coins/convert", map[string]interface{}{
		"fromCoinId": "cardano",
		"toCoinId":   "cardano",
		"amount":     1,
	}, authHeader(token))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCoinsList(t *testing.T) {
	seedTestCoin(t, "solana", 150)
	token := registerTestUser(t, "catalogo@test.com")

	w := performRequest(t, "GET", "/coins?limit=10&sortBy=price&order=desc", nil, authHeader(token))
	require.Equal(t, http.StatusOK, w.Code)

	var coins []models.Coin
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &coins))
	assert.NotEmpty(t, coins)
}

func TestMaintenanceRequiresAdminKey(t *testing.T) {
	w := performRequest(t, "GET", "/coins/price-status", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performRequest(t, "GET", "/coins/price-status", nil, map[string]string{"Admin-Key": "clave-admin"})
	require.Equal(t, http.StatusOK, w.Code)

	var status services.UpdaterStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.IsAutoUpdateActive)
}

func TestRefreshPricesEndpoint(t *testing.T) {
	w := performRequest(t, "POST", "/coins/refresh-prices", nil, map[string]string{"Admin-Key": "clave-admin"})
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Skipped bool `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Skipped)
}

func TestAdminUserRoutes(t *testing.T) {
	registerTestUser(t, "administrable@test.com")

	w := performRequest(t, "GET", "/admin/users", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performRequest(t, "GET", "/admin/users", nil, map[string]string{"Admin-Key": "clave-admin"})
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Users []models.User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Users)
}
