package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"wbanalytics_api/internal/wildberries/dto"
	"wbanalytics_api/metrics"
)

const (
	contentBaseURL    = "https://content-api.wildberries.ru"
	statisticsBaseURL = "https://statistics-api.wildberries.ru"

	pathCardsList = "/content/v2/get/cards/list"
	pathStocks    = "/api/v1/supplier/stocks"
	pathSales     = "/api/v1/supplier/sales"
	pathOrders    = "/api/v1/supplier/orders"

	RequestTimeout = 30 * time.Second
)

// Client -- клиент WB API одного кабинета. Лимитеры общие на процесс,
// токен свой у каждого кабинета.
type Client struct {
	httpClient *http.Client
	limiters   *Limiters
	retry      Policy
	token      string
	log        *zap.Logger

	contentURL    string
	statisticsURL string
}

func NewClient(token string, limiters *Limiters, log *zap.Logger) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: RequestTimeout},
		limiters:      limiters,
		retry:         DefaultPolicy(),
		token:         token,
		log:           log,
		contentURL:    contentBaseURL,
		statisticsURL: statisticsBaseURL,
	}
}

// WithBaseURLs перенацеливает клиент на другие хосты (тестовые стенды).
func (c *Client) WithBaseURLs(content, statistics string) *Client {
	c.contentURL = content
	c.statisticsURL = statistics
	return c
}

// WithRetry заменяет политику повторов запроса.
func (c *Client) WithRetry(p Policy) *Client {
	c.retry = p
	return c
}

func (c *Client) setAuth(req *http.Request) {
	req.Header.Set("Authorization", c.token)
}

// do -- одна попытка: блокирующее взятие токена лимитера, HTTP-вызов,
// классификация статуса, декодирование тела в out.
func (c *Client) do(ctx context.Context, family Family, method, rawURL string, query url.Values, body interface{}, out interface{}) error {
	if err := c.limiters.limiter(family).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	if len(query) > 0 {
		rawURL = rawURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return &APIError{Kind: KindTransport, Err: err}
	}
	c.setAuth(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordWBRequest(string(family), "transport_error")
		return &APIError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	c.log.Info("wb_api_request",
		zap.String("method", method),
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode))
	metrics.RecordWBRequest(string(family), strconv.Itoa(resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &APIError{Kind: KindInvalidToken, Status: resp.StatusCode, Msg: "invalid API token"}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &APIError{Kind: KindRateLimited, Status: resp.StatusCode, Msg: "too many requests"}
	case resp.StatusCode >= 500:
		return &APIError{Kind: KindServer, Status: resp.StatusCode, Msg: "upstream server error"}
	case resp.StatusCode >= 400:
		return &APIError{Kind: KindClient, Status: resp.StatusCode, Msg: "upstream rejected request"}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindTransport, Err: err}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &APIError{Kind: KindDecode, Status: resp.StatusCode, Msg: "invalid JSON response", Err: err}
	}
	return nil
}

// Cards запрашивает одну страницу каталога карточек по курсору.
func (c *Client) Cards(ctx context.Context, cursor dto.Cursor) (*dto.CardsResponse, error) {
	reqBody := dto.CardsRequest{Settings: dto.Settings{Cursor: cursor}}
	var out dto.CardsResponse
	err := c.retry.Do(ctx, func() error {
		return c.do(ctx, FamilyContent, http.MethodPost, c.contentURL+pathCardsList, nil, reqBody, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Stocks возвращает остатки по складам WB начиная с dateFrom.
func (c *Client) Stocks(ctx context.Context, dateFrom string) ([]dto.Stock, error) {
	query := url.Values{}
	if dateFrom != "" {
		query.Set("dateFrom", dateFrom)
	}
	var out []dto.Stock
	err := c.retry.Do(ctx, func() error {
		return c.do(ctx, FamilyStatistics, http.MethodGet, c.statisticsURL+pathStocks, query, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Sales возвращает продажи (включая отмены) начиная с dateFrom.
func (c *Client) Sales(ctx context.Context, dateFrom string, flag int) ([]dto.Sale, error) {
	query := url.Values{}
	query.Set("dateFrom", dateFrom)
	query.Set("flag", strconv.Itoa(flag))
	var out []dto.Sale
	err := c.retry.Do(ctx, func() error {
		return c.do(ctx, FamilyStatistics, http.MethodGet, c.statisticsURL+pathSales, query, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Orders возвращает заказы начиная с dateFrom.
func (c *Client) Orders(ctx context.Context, dateFrom string, flag int) ([]dto.Order, error) {
	query := url.Values{}
	query.Set("dateFrom", dateFrom)
	query.Set("flag", strconv.Itoa(flag))
	var out []dto.Order
	err := c.retry.Do(ctx, func() error {
		return c.do(ctx, FamilyStatistics, http.MethodGet, c.statisticsURL+pathOrders, query, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
