package gamefast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/kapu/rush-maximizer-go/pkg/quizdto"
)

// Client is a thin JSON gateway to the Rush-Maximizer game server. Every
// failure mode resolves to a typed error from errors.go; nothing else
// escapes its boundary. The client never mutates game state.
type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 40 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Status(ctx context.Context) (*quizdto.StatusResponse, error) {
	var resp quizdto.StatusResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/status", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProbeLM asks the game server to verify the AI endpoint is reachable. The
// body carries ok/error itself, so the generic error-field check is skipped.
func (c *Client) ProbeLM(ctx context.Context, lmServer string) (*quizdto.ProbeLMResponse, error) {
	req := quizdto.ProbeLMRequest{LMServer: lmServer}
	var resp quizdto.ProbeLMResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/probe_lm", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, nickname string) (*quizdto.RegisterResponse, error) {
	req := quizdto.RegisterRequest{Nickname: nickname}
	var resp quizdto.RegisterResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/register", req, &resp, true); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.PlayerID) == "" {
		return nil, &MalformedError{Cause: fmt.Errorf("register response missing player_id")}
	}
	return &resp, nil
}

// SoloQuestions fetches a question batch for solo/rta/practice play.
// Category and difficulty are optional filters.
func (c *Client) SoloQuestions(ctx context.Context, n int, category, difficulty string) (*quizdto.QuestionsResponse, error) {
	q := url.Values{}
	q.Set("n", strconv.Itoa(n))
	if category != "" {
		q.Set("category", category)
	}
	if difficulty != "" {
		q.Set("difficulty", difficulty)
	}
	var resp quizdto.QuestionsResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/solo/questions?"+q.Encode(), nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) AskAI(ctx context.Context, req quizdto.AskAIRequest) (*quizdto.AskAIResponse, error) {
	var resp quizdto.AskAIResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/ask_ai", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) JoinLobby(ctx context.Context, req quizdto.LobbyJoinRequest) (*quizdto.LobbyResponse, error) {
	var resp quizdto.LobbyResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/lobby/join", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateRoom(ctx context.Context, req quizdto.RoomCreateRequest) (*quizdto.RoomCreateResponse, error) {
	var resp quizdto.RoomCreateResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/room/create", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) JoinRoom(ctx context.Context, req quizdto.RoomJoinRequest) (*quizdto.LobbyResponse, error) {
	var resp quizdto.LobbyResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/room/join", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SubmitScore(ctx context.Context, req quizdto.ScoreSubmitRequest) error {
	return c.doJSON(ctx, fasthttp.MethodPost, "/scores/submit", req, nil, true)
}

func (c *Client) TopScores(ctx context.Context, mode string) (*quizdto.TopScoresResponse, error) {
	q := url.Values{}
	q.Set("mode", mode)
	var resp quizdto.TopScoresResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/scores/top?"+q.Encode(), nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ServerStats(ctx context.Context) (*quizdto.ServerStatsResponse, error) {
	var resp quizdto.ServerStatsResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/server/stats", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, checkErrField bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	status := resp.StatusCode()
	body := resp.Body()
	if status < 200 || status >= 300 {
		return &HTTPError{Status: status, Body: truncate(string(body), 512)}
	}

	if checkErrField {
		var probe struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &probe); err != nil {
			return &MalformedError{Cause: err}
		}
		if probe.Error != "" {
			return &RejectedError{Reason: probe.Error}
		}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return &MalformedError{Cause: err}
		}
	}
	return nil
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
