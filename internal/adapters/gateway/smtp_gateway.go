package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/sms-sentinel/internal/core"
	"github.com/mikey/sms-sentinel/internal/utils"
)

// SMTPGateway is an ingress for carrier email-to-SMS bridges. It accepts
// a message over SMTP, analyzes the body as SMS text, stamps the verdict
// into headers and relays the message upstream. Optionally it rejects
// high-risk messages outright.
type SMTPGateway struct {
	service       *core.AnalysisService
	logger        *zap.Logger
	textProc      *utils.TextProcessor
	listenAddr    string
	server        *smtp.Server
	relayAddr     string
	relayPort     int
	blockHighRisk bool
	mode          core.DetectionMode
	riskHeader    string
	scoreHeader   string
	reasonHeader  string
}

// NewSMTPGateway creates a new SMTP gateway
func NewSMTPGateway(
	service *core.AnalysisService,
	logger *zap.Logger,
	listenAddr string,
	relayAddr string,
	relayPort int,
	blockHighRisk bool,
	mode core.DetectionMode,
	riskHeader string,
	scoreHeader string,
	reasonHeader string,
) *SMTPGateway {
	return &SMTPGateway{
		service:       service,
		logger:        logger,
		textProc:      utils.NewTextProcessor(logger),
		listenAddr:    listenAddr,
		relayAddr:     relayAddr,
		relayPort:     relayPort,
		blockHighRisk: blockHighRisk,
		mode:          mode,
		riskHeader:    riskHeader,
		scoreHeader:   scoreHeader,
		reasonHeader:  reasonHeader,
	}
}

// Start starts the SMTP gateway
func (g *SMTPGateway) Start() error {
	g.server = smtp.NewServer(&smtpBackend{gateway: g})

	g.server.Addr = g.listenAddr
	g.server.Domain = "localhost"
	g.server.ReadTimeout = 30 * time.Second
	g.server.WriteTimeout = 30 * time.Second
	g.server.MaxMessageBytes = 1024 * 1024
	g.server.MaxRecipients = 50
	g.server.AllowInsecureAuth = true

	g.logger.Info("SMTP gateway starting", zap.String("address", g.listenAddr))

	go func() {
		if err := g.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				g.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP gateway
func (g *SMTPGateway) Stop() error {
	if g.server != nil {
		return g.server.Close()
	}
	return nil
}

// relay sends the stamped message on to the upstream hop using go-smtp
func (g *SMTPGateway) relay(sender string, recipients []string, data []byte) error {
	addr := fmt.Sprintf("%s:%d", g.relayAddr, g.relayPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			g.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		g.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	gateway *SMTPGateway
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		gateway:    b.gateway,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	gateway    *SMTPGateway
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// Logout ends the session
func (s *smtpSession) Logout() error {
	return nil
}

// AuthPlain handles PLAIN authentication (not needed for the gateway)
func (s *smtpSession) AuthPlain(_, _ string) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data analyzes the bridged SMS body and relays the stamped message
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.gateway.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	parsed, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.gateway.logger.Error("Failed to parse bridged message", zap.Error(err))
		return err
	}

	bodyBytes, err := io.ReadAll(parsed.Body)
	if err != nil {
		s.gateway.logger.Error("Failed to read bridged message body", zap.Error(err))
		return err
	}
	// Bridged bodies arrive with broken encodings and no size limit;
	// clean them up before analysis.
	text := s.gateway.textProc.ProcessText(string(bodyBytes), core.MaxTextLength-100)
	text = strings.TrimSpace(text)

	msg := &core.Message{
		Text:            text,
		ReceivedAt:      time.Now(),
		PriorFromSender: -1,
		Mode:            s.gateway.mode,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	headers := make([]string, 0, 3)
	result, analysisErr := s.gateway.service.Analyze(ctx, msg)
	if analysisErr != nil {
		// Malformed bridged content must not lose mail; stamp the
		// failure and pass the message through.
		s.gateway.logger.Warn("Gateway analysis rejected message text",
			zap.Error(analysisErr),
			zap.String("sender", s.sender))
		headers = append(headers,
			fmt.Sprintf("%s: unscored", s.gateway.riskHeader),
			fmt.Sprintf("%s: %v", s.gateway.reasonHeader, analysisErr))
	} else {
		headers = append(headers,
			fmt.Sprintf("%s: %s", s.gateway.riskHeader, result.Verdict.Risk))
		if result.Verdict.Confidence != nil {
			headers = append(headers,
				fmt.Sprintf("%s: %.4f", s.gateway.scoreHeader, *result.Verdict.Confidence))
		}
		headers = append(headers,
			fmt.Sprintf("%s: %s", s.gateway.reasonHeader, sanitizeHeaderValue(result.Verdict.Explanation)))

		if s.gateway.blockHighRisk && result.Verdict.Risk == core.RiskHigh {
			s.gateway.logger.Info("Blocking high-risk message",
				zap.String("sender", s.sender),
				zap.String("analysis_id", result.ID))
			return &smtp.SMTPError{
				Code:         550,
				EnhancedCode: smtp.EnhancedCode{5, 7, 1},
				Message:      "Message rejected as likely fraud",
			}
		}
	}

	stamped := append([]byte(strings.Join(headers, "\r\n")+"\r\n"), rawData...)

	if err := s.gateway.relay(s.sender, s.recipients, stamped); err != nil {
		s.gateway.logger.Error("Failed to relay message", zap.Error(err))
		return err
	}
	return nil
}

// sanitizeHeaderValue keeps a verdict explanation legal inside one header
// line.
func sanitizeHeaderValue(v string) string {
	v = strings.ReplaceAll(v, "\r", " ")
	v = strings.ReplaceAll(v, "\n", " ")
	if len(v) > 900 {
		v = v[:900] + "..."
	}
	return v
}
