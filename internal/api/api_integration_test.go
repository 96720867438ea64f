// internal/api/api_integration_test.go
package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "billing-api/internal"
	"billing-api/internal/auth"
	"billing-api/internal/domain"
	"billing-api/internal/service"
)

// testApp is the global application instance for testing.
var testApp *app.Application

// testServer is the httptest server.
var testServer *httptest.Server

const testWebhookSigningKey = "integration-signing-key"

// TestMain is the special entry point for Go tests, executed once before all tests.
func TestMain(m *testing.M) {
	// 1. Set up environment variables (ensure DB_NAME points to the test database).
	// In a real CI/CD environment, these variables would be provided by the CI system.
	setupEnvVars()

	// 2. Initialize the application.
	testApp = app.NewApplication()
	if err := testApp.Initialize(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize test application: %v\n", err)
		os.Exit(1)
	}

	// 3. Start an httptest server to test the HTTP handling layer.
	testServer = httptest.NewServer(testApp.HTTPHandler)
	defer testServer.Close()

	// 4. Run all tests.
	code := m.Run()

	// 5. Shut down application resources after tests (e.g., database connections).
	if err := testApp.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shutdown test application: %v\n", err)
		os.Exit(1)
	}

	os.Exit(code)
}

// setupEnvVars helper function: sets or checks environment variables required for testing.
func setupEnvVars() {
	if os.Getenv("SERVER_PORT") == "" {
		os.Setenv("SERVER_PORT", "8080")
	}
	if os.Getenv("DB_HOST") == "" {
		os.Setenv("DB_HOST", "localhost")
	}
	if os.Getenv("DB_PORT") == "" {
		os.Setenv("DB_PORT", "5432")
	}
	if os.Getenv("DB_USER") == "" {
		os.Setenv("DB_USER", "user")
	}
	if os.Getenv("DB_PASSWORD") == "" {
		os.Setenv("DB_PASSWORD", "password")
	}
	if os.Getenv("DB_NAME") == "" {
		os.Setenv("DB_NAME", "billingdb_test") // Ensure this is your test database name
	}
	if os.Getenv("DB_SSLMODE") == "" {
		os.Setenv("DB_SSLMODE", "disable")
	}
	if os.Getenv("JWT_SECRET") == "" {
		os.Setenv("JWT_SECRET", "integration-jwt-secret")
	}
	if os.Getenv("WEBHOOK_SIGNING_KEY") == "" {
		os.Setenv("WEBHOOK_SIGNING_KEY", testWebhookSigningKey)
	}
}

// clearDatabase helper function: truncates all relevant tables to ensure a clean database state for each test case.
func clearDatabase(t *testing.T) {
	// Order is important due to foreign key dependencies.
	tables := []string{"purchases", "transactions", "customer_bills", "products", "users"}
	for _, table := range tables {
		_, err := testApp.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE;", table))
		require.NoError(t, err, "Failed to truncate table %s", table)
	}
}

// createTestUser helper function: creates an active account directly through
// the repository and returns its id.
func createTestUser(t *testing.T, username, password string, isAdmin bool) int64 {
	salt, hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := domain.NewUser(username, username+"@example.com", hash, salt)
	user.IsActive = true
	user.IsAdmin = isAdmin
	err = testApp.UserRepository.CreateUser(context.Background(), testApp.DB, user)
	require.NoError(t, err)
	return user.ID
}

// createTestBill helper function: creates a bill with the given balance.
func createTestBill(t *testing.T, userID int64, balance decimal.Decimal) int64 {
	bill := domain.NewBill(userID)
	err := testApp.BillRepository.CreateBill(context.Background(), testApp.DB, bill)
	require.NoError(t, err)

	// Set the balance directly for test setup; the API itself only moves
	// balances through credits and purchases.
	_, err = testApp.DB.ExecContext(context.Background(), "UPDATE customer_bills SET balance = $1 WHERE id = $2", balance, bill.ID)
	require.NoError(t, err)
	return bill.ID
}

// createTestProduct helper function: creates a product with the given price.
func createTestProduct(t *testing.T, title string, price decimal.Decimal) int64 {
	product := domain.NewProduct(title, "test product", price)
	err := testApp.ProductRepository.CreateProduct(context.Background(), testApp.DB, product)
	require.NoError(t, err)
	return product.ID
}

// login helper function: obtains an access token through the login endpoint.
func login(t *testing.T, username, password string) string {
	body := fmt.Sprintf(`{"username": %q, "password": %q}`, username, password)
	resp, respBody := makeRequest(t, "POST", "/v1/auth/login/", strings.NewReader(body), "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "login failed: %s", respBody)

	var pair struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal([]byte(respBody), &pair))
	require.NotEmpty(t, pair.AccessToken)
	return pair.AccessToken
}

// makeRequest helper function: sends an HTTP request to the test server.
func makeRequest(t *testing.T, method, path string, body io.Reader, token string) (*http.Response, string) {
	req, err := http.NewRequest(method, testServer.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(respBody)
}

// TestRegistrationAndLoginIntegration covers the full account lifecycle:
// register, fail to log in while inactive, activate, log in.
func TestRegistrationAndLoginIntegration(t *testing.T) {
	clearDatabase(t)

	requestBody := `{"username": "newcomer", "email": "newcomer@example.com", "password": "long enough password"}`
	resp, body := makeRequest(t, "POST", "/v1/auth/user", strings.NewReader(requestBody), "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode, "register failed: %s", body)

	var registered struct {
		ActivationLink string `json:"activation_link"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &registered))
	require.NotEmpty(t, registered.ActivationLink)

	t.Run("InactiveAccountCannotLogIn", func(t *testing.T) {
		loginBody := `{"username": "newcomer", "password": "long enough password"}`
		resp, _ := makeRequest(t, "POST", "/v1/auth/login/", strings.NewReader(loginBody), "")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("ActivationEnablesLogin", func(t *testing.T) {
		// Follow the relative part of the activation link against the test server.
		idx := strings.Index(registered.ActivationLink, "/v1/auth/activate/")
		require.GreaterOrEqual(t, idx, 0)
		resp, _ := makeRequest(t, "GET", registered.ActivationLink[idx:], nil, "")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		token := login(t, "newcomer", "long enough password")
		assert.NotEmpty(t, token)
	})

	t.Run("DuplicateUsernameIsConflict", func(t *testing.T) {
		resp, _ := makeRequest(t, "POST", "/v1/auth/user", strings.NewReader(requestBody), "")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

// TestPurchaseIntegration covers the purchase flow against real balances.
func TestPurchaseIntegration(t *testing.T) {
	clearDatabase(t)
	userID := createTestUser(t, "buyer", "buyer password", false)
	billID := createTestBill(t, userID, decimal.RequireFromString("100.00"))
	productID := createTestProduct(t, "Gift card", decimal.RequireFromString("60.00"))
	token := login(t, "buyer", "buyer password")

	t.Run("SuccessfulPurchase", func(t *testing.T) {
		requestBody := fmt.Sprintf(`{"product_id": %d, "user_id": %d, "bill_id": %d}`, productID, userID, billID)
		resp, body := makeRequest(t, "POST", "/v1/api/purchases", strings.NewReader(requestBody), token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var responseMap map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(body), &responseMap))
		newBalance, err := decimal.NewFromString(responseMap["balance"].(string))
		require.NoError(t, err)
		assert.True(t, newBalance.Equal(decimal.RequireFromString("40.00")), "balance should drop to 40.00, got %s", newBalance)
	})

	t.Run("SecondPurchaseExceedsBalance", func(t *testing.T) {
		requestBody := fmt.Sprintf(`{"product_id": %d, "user_id": %d, "bill_id": %d}`, productID, userID, billID)
		resp, body := makeRequest(t, "POST", "/v1/api/purchases", strings.NewReader(requestBody), token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "Not enough money to purchase")

		// The failed attempt must not change the stored balance.
		bill, err := testApp.BillRepository.GetBillByID(context.Background(), testApp.DB, billID)
		require.NoError(t, err)
		assert.True(t, bill.Balance.Equal(decimal.RequireFromString("40.00")))
	})

	t.Run("UnauthenticatedPurchaseIsRejected", func(t *testing.T) {
		requestBody := fmt.Sprintf(`{"product_id": %d, "user_id": %d, "bill_id": %d}`, productID, userID, billID)
		resp, _ := makeRequest(t, "POST", "/v1/api/purchases", strings.NewReader(requestBody), "")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

// TestConcurrentPurchaseIntegration races two purchases that are each
// affordable on their own but not together. Row locking must let exactly
// one of them through and never overdraw the bill.
func TestConcurrentPurchaseIntegration(t *testing.T) {
	clearDatabase(t)
	userID := createTestUser(t, "racer", "racer password", false)
	billID := createTestBill(t, userID, decimal.RequireFromString("50.00"))
	productID := createTestProduct(t, "Headphones", decimal.RequireFromString("40.00"))
	token := login(t, "racer", "racer password")

	requestBody := fmt.Sprintf(`{"product_id": %d, "user_id": %d, "bill_id": %d}`, productID, userID, billID)

	statuses := make(chan int, 2)
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Plain client here: test helpers must not fail the test from a
			// non-test goroutine.
			req, err := http.NewRequest("POST", testServer.URL+"/v1/api/purchases", strings.NewReader(requestBody))
			if err != nil {
				errs <- err
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				errs <- err
				return
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	var created, rejected int
	for status := range statuses {
		switch status {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
			rejected++
		default:
			t.Fatalf("unexpected status %d", status)
		}
	}
	assert.Equal(t, 1, created, "exactly one purchase should win the race")
	assert.Equal(t, 1, rejected, "the losing purchase should be rejected")

	bill, err := testApp.BillRepository.GetBillByID(context.Background(), testApp.DB, billID)
	require.NoError(t, err)
	assert.False(t, bill.Balance.IsNegative(), "balance must never go negative, got %s", bill.Balance)
	assert.True(t, bill.Balance.Equal(decimal.RequireFromString("10.00")), "expected 10.00 left, got %s", bill.Balance)
}

// TestWebhookIntegration covers the signed payment webhook, including lazy
// bill creation and replay suppression.
func TestWebhookIntegration(t *testing.T) {
	clearDatabase(t)
	userID := createTestUser(t, "payer", "payer password", false)

	billID := int64(501)
	amount := decimal.RequireFromString("150.00")
	// Signed over the amount exactly as it appears in the payload body.
	signature := service.Signature(testWebhookSigningKey, 1, userID, billID, "150.00")
	payload := fmt.Sprintf(`{"signature": %q, "transaction_id": 1, "user_id": %d, "bill_id": %d, "amount": "150.00"}`, signature, userID, billID)

	t.Run("FirstDeliveryCreatesBillAndCredits", func(t *testing.T) {
		resp, _ := makeRequest(t, "POST", "/v1/payment/webhook", strings.NewReader(payload), "")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		bill, err := testApp.BillRepository.GetBillByID(context.Background(), testApp.DB, billID)
		require.NoError(t, err)
		assert.True(t, bill.Balance.Equal(amount))
	})

	t.Run("ReplayIsAcknowledgedWithoutSecondCredit", func(t *testing.T) {
		resp, _ := makeRequest(t, "POST", "/v1/payment/webhook", strings.NewReader(payload), "")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		bill, err := testApp.BillRepository.GetBillByID(context.Background(), testApp.DB, billID)
		require.NoError(t, err)
		assert.True(t, bill.Balance.Equal(amount), "replay must not credit twice")
	})

	t.Run("TamperedPayloadIsRejected", func(t *testing.T) {
		tampered := fmt.Sprintf(`{"signature": %q, "transaction_id": 2, "user_id": %d, "bill_id": %d, "amount": "9999.00"}`, signature, userID, billID)
		resp, body := makeRequest(t, "POST", "/v1/payment/webhook", strings.NewReader(tampered), "")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "Wrong data")
	})

	t.Run("AdminBillCreationSurvivesProvisionedIds", func(t *testing.T) {
		// Provisioning bill 501 above jumped ahead of the serial. A fresh
		// serial-assigned bill must not collide with it.
		createTestUser(t, "root", "admin password", true)
		adminToken := login(t, "root", "admin password")

		requestBody := fmt.Sprintf(`{"user_id": %d}`, userID)
		resp, body := makeRequest(t, "POST", "/v1/api/bills", strings.NewReader(requestBody), adminToken)
		defer resp.Body.Close()

		require.Equal(t, http.StatusCreated, resp.StatusCode, "bill creation failed: %s", body)

		var created domain.Bill
		require.NoError(t, json.Unmarshal([]byte(body), &created))
		assert.Greater(t, created.ID, billID)
	})
}

// TestAccessScopingIntegration verifies that listings are scoped to the
// caller and that detail reads of foreign records are forbidden.
func TestAccessScopingIntegration(t *testing.T) {
	clearDatabase(t)
	aliceID := createTestUser(t, "alice", "alice password", false)
	bobID := createTestUser(t, "bob", "bob password", false)
	createTestUser(t, "root", "admin password", true)

	aliceBill := createTestBill(t, aliceID, decimal.RequireFromString("10.00"))
	bobBill := createTestBill(t, bobID, decimal.RequireFromString("20.00"))

	aliceToken := login(t, "alice", "alice password")
	adminToken := login(t, "root", "admin password")

	t.Run("UserSeesOnlyOwnBills", func(t *testing.T) {
		resp, body := makeRequest(t, "GET", "/v1/api/bills", nil, aliceToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var listing struct {
			Bills []domain.Bill `json:"bills"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &listing))
		require.Len(t, listing.Bills, 1)
		assert.Equal(t, aliceBill, listing.Bills[0].ID)
	})

	t.Run("AdminSeesAllBills", func(t *testing.T) {
		resp, body := makeRequest(t, "GET", "/v1/api/bills", nil, adminToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var listing struct {
			Bills []domain.Bill `json:"bills"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &listing))
		assert.Len(t, listing.Bills, 2)
	})

	t.Run("ForeignBillDetailIsForbidden", func(t *testing.T) {
		resp, _ := makeRequest(t, "GET", fmt.Sprintf("/v1/api/bills/%d", bobBill), nil, aliceToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("NonAdminCannotManageCatalog", func(t *testing.T) {
		resp, _ := makeRequest(t, "POST", "/v1/api/products", strings.NewReader(`{"title": "X", "description": "", "price": "1.00"}`), aliceToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("CatalogIsPubliclyReadable", func(t *testing.T) {
		resp, _ := makeRequest(t, "GET", "/v1/api/products", nil, "")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

// TestBillHistoryIntegration verifies the paginated statement stays
// consistent with the stored balance.
func TestBillHistoryIntegration(t *testing.T) {
	clearDatabase(t)
	userID := createTestUser(t, "historian", "history password", false)
	createTestUser(t, "root", "admin password", true)
	billID := createTestBill(t, userID, decimal.Zero)

	adminToken := login(t, "root", "admin password")
	userToken := login(t, "historian", "history password")

	// Apply three credits through the admin endpoint.
	for _, amount := range []string{"500.00", "150.00", "200.00"} {
		requestBody := fmt.Sprintf(`{"bill_id": %d, "user_id": %d, "amount": %q}`, billID, userID, amount)
		resp, body := makeRequest(t, "POST", "/v1/api/transactions", strings.NewReader(requestBody), adminToken)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode, "credit failed: %s", body)
	}

	resp, body := makeRequest(t, "GET", fmt.Sprintf("/v1/api/bills/%d/transactions?limit=10&offset=0", billID), nil, userToken)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var history struct {
		Data       []domain.Transaction `json:"data"`
		TotalCount int64                `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &history))
	assert.Equal(t, int64(3), history.TotalCount)
	require.Len(t, history.Data, 3)

	sum := decimal.Zero
	for _, transaction := range history.Data {
		sum = sum.Add(transaction.Amount)
	}

	bill, err := testApp.BillRepository.GetBillByID(context.Background(), testApp.DB, billID)
	require.NoError(t, err)
	assert.True(t, bill.Balance.Equal(sum), "balance must equal the sum of credited amounts")
}
