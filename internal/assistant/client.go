// Package assistant sends conversation history to an OpenAI-compatible
// chat-completion endpoint and classifies its failures.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/net/proxy"

	"github.com/rbright/hark/internal/conversation"
)

// KeyFunc resolves the API key for each request.
type KeyFunc func() (string, error)

// Options configures a Client.
type Options struct {
	BaseURL string
	Model   string
	// Proxy is an optional SOCKS5 address, either host:port or socks5://host:port.
	Proxy   string
	Timeout time.Duration
	Key     KeyFunc
}

// Client is a single-shot chat-completion client. Retries are disabled so
// each query issues exactly one request.
type Client struct {
	api   openai.Client
	model string
	key   KeyFunc
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("assistant model must not be empty")
	}
	if opts.Key == nil {
		return nil, errors.New("assistant key func must not be nil")
	}

	httpClient, err := newHTTPClient(opts.Proxy, opts.Timeout)
	if err != nil {
		return nil, err
	}

	clientOpts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}

	return &Client{
		api:   openai.NewClient(clientOpts...),
		model: opts.Model,
		key:   opts.Key,
	}, nil
}

// Ready reports whether a credential is available without sending anything.
func (c *Client) Ready() error {
	_, err := c.key()
	return err
}

// Send posts the full history and returns the first choice's content, which
// may be empty.
func (c *Client) Send(ctx context.Context, turns []conversation.Turn) (string, error) {
	key, err := c.key()
	if err != nil {
		return "", err
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case conversation.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	}, option.WithAPIKey(key))
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &NetworkError{StatusCode: apiErr.StatusCode, Err: err}
	}

	var urlErr *url.Error
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &NetworkError{Err: err}
	case errors.As(err, &urlErr), errors.As(err, &netErr):
		return &NetworkError{Err: err}
	default:
		return &ParseError{Err: err}
	}
}

func newHTTPClient(proxyAddr string, timeout time.Duration) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyAddr = strings.TrimSpace(proxyAddr); proxyAddr != "" {
		dialer, err := socksDialer(proxyAddr)
		if err != nil {
			return nil, fmt.Errorf("configure proxy %q: %w", proxyAddr, err)
		}
		transport.Proxy = nil
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	}

	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

func socksDialer(addr string) (proxy.Dialer, error) {
	if !strings.Contains(addr, "://") {
		return proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}
	return proxy.FromURL(u, proxy.Direct)
}
