package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	KindActivation    = "activation"
	KindPasswordReset = "password-reset"
)

// MailJob is one outbound message handed to the worker pool.
type MailJob struct {
	Kind      string
	Recipient string
	Name      string
	Token     string
}

type Worker struct {
	ID         int
	WorkerPool chan chan MailJob
	JobChannel chan MailJob
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan MailJob, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan MailJob),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(MailJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {

			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing mail", "worker_id", w.ID, "kind", job.Kind)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("mail worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

// Client delivers lifecycle emails through an HTTP mail relay. Sends are
// queued and delivered by background workers so callers never block on the
// relay; a delivery failure is logged, never surfaced.
type Client struct {
	relayURL          string
	apiKey            string
	fromAddress       string
	activationBaseURL string
	resetBaseURL      string
	dispatchTimeout   time.Duration
	logger            *slog.Logger

	jobQueue   chan MailJob
	workerPool chan chan MailJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

type Config struct {
	RelayURL          string
	APIKey            string
	FromAddress       string
	ActivationBaseURL string
	ResetBaseURL      string
	DispatchTimeout   time.Duration
	MaxWorkers        int
	QueueSize         int
}

func NewClient(config Config, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	dispatchTimeout := config.DispatchTimeout
	if dispatchTimeout <= 0 {
		dispatchTimeout = 10 * time.Second
	}

	client := &Client{
		relayURL:          config.RelayURL,
		apiKey:            config.APIKey,
		fromAddress:       config.FromAddress,
		activationBaseURL: config.ActivationBaseURL,
		resetBaseURL:      config.ResetBaseURL,
		dispatchTimeout:   dispatchTimeout,
		logger:            logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan MailJob, queueSize),
		workerPool: make(chan chan MailJob, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	client.startWorkerPool()

	return client
}

func (c *Client) startWorkerPool() {
	c.once.Do(func() {

		for i := 0; i < c.maxWorkers; i++ {
			worker := NewWorker(i, c.workerPool, c.logger)
			worker.Start(c.ctx, &c.wg, c.deliver)
		}

		go c.dispatch()

		c.logger.Info("mailer worker pool started",
			"max_workers", c.maxWorkers,
			"queue_size", cap(c.jobQueue))
	})
}

func (c *Client) dispatch() {
	defer c.wg.Done()
	c.wg.Add(1)

	for {
		select {
		case job := <-c.jobQueue:

			select {
			case jobChannel := <-c.workerPool:

				select {
				case jobChannel <- job:

				case <-c.ctx.Done():
					c.logger.Info("mail dispatcher shutting down")
					return
				}
			case <-c.ctx.Done():
				c.logger.Info("mail dispatcher shutting down")
				return
			}
		case <-c.ctx.Done():
			c.logger.Info("mail dispatcher shutting down")
			return
		}
	}
}

func (c *Client) Shutdown() {
	c.logger.Info("shutting down mailer client")
	c.cancel()
	c.wg.Wait()
	c.logger.Info("mailer client shutdown complete")
}

// SendActivationMail queues the invitation email. A full queue drops the
// message with a warning; the token stays valid and the invite can be
// re-sent.
func (c *Client) SendActivationMail(recipient, name, tokenString string) {
	c.enqueue(MailJob{Kind: KindActivation, Recipient: recipient, Name: name, Token: tokenString})
}

// SendPasswordResetMail queues the reset email.
func (c *Client) SendPasswordResetMail(recipient, name, tokenString string) {
	c.enqueue(MailJob{Kind: KindPasswordReset, Recipient: recipient, Name: name, Token: tokenString})
}

func (c *Client) enqueue(job MailJob) {
	select {
	case c.jobQueue <- job:
		c.logger.Info("mail queued",
			"kind", job.Kind,
			"recipient", job.Recipient,
			"queue_length", len(c.jobQueue))
	default:
		c.logger.Warn("mail queue full, dropping message",
			"kind", job.Kind,
			"recipient", job.Recipient,
			"queue_capacity", cap(c.jobQueue))
	}
}

func (c *Client) actionLink(job MailJob) string {
	base := c.activationBaseURL
	if job.Kind == KindPasswordReset {
		base = c.resetBaseURL
	}
	return fmt.Sprintf("%s?token=%s", base, url.QueryEscape(job.Token))
}

func (c *Client) deliver(job MailJob) {
	subject := "Activate your account"
	if job.Kind == KindPasswordReset {
		subject = "Reset your password"
	}

	payload := map[string]interface{}{
		"from":     c.fromAddress,
		"to":       job.Recipient,
		"subject":  subject,
		"template": job.Kind,
		"variables": map[string]string{
			"name": job.Name,
			"link": c.actionLink(job),
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("failed to marshal mail payload", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.dispatchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.relayURL+"/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		c.logger.Error("failed to create mail relay request",
			"error", err,
			"recipient", job.Recipient)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	client := &http.Client{Timeout: c.dispatchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		c.logger.Error("mail relay request failed",
			"error", err,
			"kind", job.Kind,
			"recipient", job.Recipient)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted {
		c.logger.Info("mail delivered to relay",
			"kind", job.Kind,
			"recipient", job.Recipient,
			"status_code", resp.StatusCode)
	} else {
		c.logger.Warn("mail relay returned error",
			"kind", job.Kind,
			"recipient", job.Recipient,
			"status_code", resp.StatusCode)
	}
}
