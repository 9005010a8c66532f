package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pedrosilva/notifier/internal/contact"
	"github.com/pedrosilva/notifier/internal/errors"
	"github.com/pedrosilva/notifier/internal/httpclient"
	"github.com/pedrosilva/notifier/internal/logger"
)

const (
	// DefaultEndpoint is the Nexmo SMS API.
	DefaultEndpoint = "https://rest.nexmo.com/sms/json"

	// maxResponseSize caps how much of a provider answer is kept
	maxResponseSize = 1 << 20

	componentName = "sms"
)

// Config holds the Nexmo account and transport settings.
type Config struct {
	APIKey    string
	APISecret string
	Endpoint  string
	Timeout   time.Duration

	// Transport replaces the HTTP transport, for tests.
	Transport http.RoundTripper
}

// NexmoClient implements Client against the Nexmo REST API.
type NexmoClient struct {
	http      *httpclient.Client
	endpoint  string
	apiKey    string
	apiSecret string
	log       logger.Logger
}

// NewNexmoClient creates a client. A nil log discards output.
func NewNexmoClient(cfg Config, log logger.Logger) *NexmoClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if log == nil {
		log = logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
	}

	client := httpclient.New(&httpclient.Config{
		DefaultTimeout: cfg.Timeout,
		Transport:      cfg.Transport,
	})
	client.SetBeforeRequestHook(func(req *http.Request) {
		log.Trace("calling provider",
			logger.String("method", req.Method),
			logger.String("host", req.URL.Host))
	})
	client.SetAfterResponseHook(func(req *http.Request, resp *http.Response, err error, elapsed time.Duration) {
		if err != nil {
			return
		}
		log.Trace("provider answered",
			logger.String("method", req.Method),
			logger.Int("http_status", resp.StatusCode),
			logger.Duration("elapsed", elapsed))
	})

	return &NexmoClient{
		http:      client,
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		log:       log,
	}
}

// Close releases idle connections.
func (c *NexmoClient) Close() {
	c.http.Close()
}

// nexmoResponse is the JSON answer of the SMS API. Numeric fields arrive as strings.
type nexmoResponse struct {
	MessageCount string         `json:"message-count"`
	Messages     []nexmoMessage `json:"messages"`
}

type nexmoMessage struct {
	To        string `json:"to"`
	MessageID string `json:"message-id"`
	Status    string `json:"status"`
	ErrorText string `json:"error-text"`
}

// Send submits text to phone ("+" is prepended) with from as the sender id.
func (c *NexmoClient) Send(ctx context.Context, from, phone, text string) (*contact.DeliveryResult, error) {
	form := url.Values{
		"api_key":    {c.apiKey},
		"api_secret": {c.apiSecret},
		"from":       {from},
		"to":         {"+" + phone},
		"text":       {text},
	}

	c.log.Debug("submitting SMS", logger.String("to", phone), logger.Int("length", len(text)))

	resp, err := c.http.PostForm(ctx, c.endpoint, form)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("send to %s interrupted: %w", phone, ctxErr)
		}
		return c.notDelivered(phone, nil, errors.New(fmt.Errorf("nexmo request failed: %w", err)).
			Component(componentName).
			Category(errors.CategorySMSDelivery).
			Context("phone", phone).
			Build()), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("send to %s interrupted: %w", phone, ctxErr)
		}
		return c.notDelivered(phone, nil, errors.New(fmt.Errorf("reading nexmo response: %w", err)).
			Component(componentName).
			Category(errors.CategorySMSDelivery).
			Context("phone", phone).
			Build()), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.notDelivered(phone, raw, errors.Newf("nexmo returned HTTP %d", resp.StatusCode).
			Component(componentName).
			Category(errors.CategorySMSDelivery).
			Context("phone", phone).
			Context("http_status", resp.StatusCode).
			Build()), nil
	}

	result, err := parseResponse(raw)
	if err != nil {
		return nil, errors.New(err).
			Component(componentName).
			Category(errors.CategorySMSProvider).
			Context("phone", phone).
			Build()
	}

	if result.Status != 0 {
		c.log.Warn("provider rejected SMS",
			logger.String("to", phone),
			logger.Int("status", result.Status),
			logger.String("error_text", result.ErrorText))
	} else {
		c.log.Info("SMS accepted",
			logger.String("to", phone),
			logger.String("message_id", result.MessageID))
	}
	return result, nil
}

// parseResponse interprets a 2xx body. Multi-part messages report the first
// nonzero part status; the message id is taken from the first part.
func parseResponse(raw []byte) (*contact.DeliveryResult, error) {
	var body nexmoResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("malformed nexmo response: %w", err)
	}
	if len(body.Messages) == 0 {
		return nil, fmt.Errorf("malformed nexmo response: no messages")
	}

	result := &contact.DeliveryResult{
		MessageID: body.Messages[0].MessageID,
		Raw:       raw,
	}
	for i, part := range body.Messages {
		status, err := strconv.Atoi(part.Status)
		if err != nil {
			return nil, fmt.Errorf("malformed nexmo response: part %d has status %q", i, part.Status)
		}
		if status != 0 && result.Status == 0 {
			result.Status = status
			result.ErrorText = part.ErrorText
		}
	}
	return result, nil
}

func (c *NexmoClient) notDelivered(phone string, raw []byte, err error) *contact.DeliveryResult {
	c.log.Warn("SMS not delivered", logger.String("to", phone), logger.Error(err))
	return &contact.DeliveryResult{
		Status: contact.StatusNotDelivered,
		Raw:    raw,
		Err:    err,
	}
}
