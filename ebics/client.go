package ebics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sirosfoundation/go-ebics/pkg/audit"
	"github.com/sirosfoundation/go-ebics/pkg/command"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsconfig"
	"github.com/sirosfoundation/go-ebics/pkg/ebicserr"
	"github.com/sirosfoundation/go-ebics/pkg/engine"
	"github.com/sirosfoundation/go-ebics/pkg/order"
	"github.com/sirosfoundation/go-ebics/pkg/revocation"
	"github.com/sirosfoundation/go-ebics/pkg/transport"
)

// Client is a stateless dispatcher over a shared EbicsConfig: every method call builds its own command and TransactionContext
// and drives it to completion through the shared Engine.
type Client struct {
	cfg        *ebicsconfig.EbicsConfig
	engine     *engine.Engine
	audit      audit.Store
	log        *slog.Logger
	httpsCfg   *transport.HTTPSConfig
	revocation *revocation.Checker
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithLogger sets the structured logger threaded through the engine and
// transport, in place of a global logger factory.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithAuditStore records a trail of completed transactions. The default
// is audit.NoopStore.
func WithAuditStore(store audit.Store) Option {
	return func(c *Client) { c.audit = store }
}

// WithHTTPSConfig overrides the client's transport settings.
func WithHTTPSConfig(httpsCfg *transport.HTTPSConfig) Option {
	return func(c *Client) { c.httpsCfg = httpsCfg }
}

// WithRevocationChecker overrides the OCSP checker HPB uses to validate a
// bank certificate, e.g. with a shorter timeout or a mock in tests. The
// default is revocation.NewChecker(0).
func WithRevocationChecker(checker *revocation.Checker) Option {
	return func(c *Client) { c.revocation = checker }
}

// New creates a Client bound to cfg. cfg.Version, cfg.URL, and cfg's key
// material must already be populated (ebicsconfig.Load or manual
// construction); cfg.BankKeys() is nil until a successful HPB.
func New(cfg *ebicsconfig.EbicsConfig, opts ...Option) *Client {
	c := &Client{cfg: cfg, audit: audit.NoopStore{}, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpsCfg == nil {
		c.httpsCfg = transport.DefaultHTTPSConfig()
	}
	if c.revocation == nil {
		c.revocation = revocation.NewChecker(0)
	}
	tr := transport.New(c.httpsCfg, c.log)
	c.engine = engine.New(cfg, tr, engine.NewRecoveryLog(c.log), c.log)
	return c
}

func (c *Client) run(ctx context.Context, cmd engine.Command, orderType string) (engine.Result, error) {
	correlationID := uuid.NewString()
	started := time.Now()
	result, err := c.engine.Run(ctx, cmd)

	entry := audit.Entry{
		CorrelationID: correlationID,
		OrderType:     orderType,
		Direction:     cmd.Direction().String(),
		StartedAt:     started,
		FinishedAt:    time.Now(),
	}
	if err == nil {
		entry.TransactionID = result.Envelope.TransactionID
		entry.TechnicalReturnCode = result.Envelope.TechnicalReturnCode
		entry.BusinessReturnCode = result.Envelope.BusinessReturnCode
		entry.ReportText = result.Envelope.ReportText
	}
	if auditErr := c.audit.Record(ctx, entry); auditErr != nil {
		c.log.Warn("ebics audit record failed", "order_type", orderType, "correlation_id", correlationID, "error", auditErr)
	}

	return result, err
}

// INI announces the client's signature public key to the bank.
func (c *Client) INI(ctx context.Context) (order.IniResult, error) {
	result, err := c.run(ctx, command.NewIniCommand(c.cfg), "INI")
	if err != nil {
		return order.IniResult{}, err
	}
	return order.IniResult{
		TechnicalReturnCode: result.Envelope.TechnicalReturnCode,
		ReportText:          result.Envelope.ReportText,
	}, nil
}

// HIA announces the client's authentication and encryption public keys.
func (c *Client) HIA(ctx context.Context) (order.HiaResult, error) {
	result, err := c.run(ctx, command.NewHiaCommand(c.cfg), "HIA")
	if err != nil {
		return order.HiaResult{}, err
	}
	return order.HiaResult{
		TechnicalReturnCode: result.Envelope.TechnicalReturnCode,
		ReportText:          result.Envelope.ReportText,
	}, nil
}

// HPB downloads and stores the bank's public keys.
func (c *Client) HPB(ctx context.Context) (order.HpbResult, error) {
	result, err := c.run(ctx, command.NewHpbCommand(c.cfg), "HPB")
	if err != nil {
		return order.HpbResult{}, err
	}
	hpb, ok := result.Payload.(order.HpbResult)
	if !ok {
		return order.HpbResult{}, fmt.Errorf("%w: HPB returned an unexpected payload type", ebicserr.ErrDeserialization)
	}
	hpb.TechnicalReturnCode = result.Envelope.TechnicalReturnCode
	hpb.ReportText = result.Envelope.ReportText
	if err := c.checkBankCertificate(ctx, hpb.Keys); err != nil {
		return order.HpbResult{}, err
	}
	c.cfg.SetBankKeys(hpb.Keys)
	return hpb, nil
}

// checkBankCertificate runs an OCSP revocation check against the bank's
// certificate, when both HPB delivered one and an issuer certificate is
// configured to validate the OCSP response against. Neither is guaranteed:
// many banks still deliver bare RSA keys, and issuer certificates are
// opt-in via ebicsconfig's issuerCertFile. In that case the keys are
// trusted on the strength of the public-key digest alone, as before.
func (c *Client) checkBankCertificate(ctx context.Context, keys order.BankKeys) error {
	if keys.Certificate == nil || c.cfg.IssuerCert == nil {
		return nil
	}
	err := c.revocation.Check(ctx, keys.Certificate, c.cfg.IssuerCert.Certificate())
	if err == nil {
		return nil
	}
	if errors.Is(err, revocation.ErrRevoked) {
		return fmt.Errorf("%w: bank certificate is revoked", ebicserr.ErrProtocol)
	}
	c.log.Warn("ebics bank certificate revocation check failed", "error", err)
	return nil
}

// PTK downloads the client's protocol log.
func (c *Client) PTK(ctx context.Context, params order.PtkParams) (order.PtkResult, error) {
	result, err := c.run(ctx, command.NewPtkCommand(c.cfg, params), "PTK")
	if err != nil {
		return order.PtkResult{}, err
	}
	ptk, _ := result.Payload.(order.PtkResult)
	ptk.TechnicalReturnCode = result.Envelope.TechnicalReturnCode
	ptk.ReportText = result.Envelope.ReportText
	return ptk, nil
}

// STA downloads an account statement (MT940).
func (c *Client) STA(ctx context.Context, params order.StaParams) (order.StaResult, error) {
	result, err := c.run(ctx, command.NewStaCommand(c.cfg, params), "STA")
	if err != nil {
		return order.StaResult{}, err
	}
	sta, _ := result.Payload.(order.StaResult)
	sta.TechnicalReturnCode = result.Envelope.TechnicalReturnCode
	sta.ReportText = result.Envelope.ReportText
	return sta, nil
}

// CCT uploads a SEPA Credit Transfer.
func (c *Client) CCT(ctx context.Context, params order.CctParams) (order.CctResult, error) {
	result, err := c.run(ctx, command.NewCctCommand(c.cfg, params), "CCT")
	if err != nil {
		return order.CctResult{}, err
	}
	return order.CctResult{
		TechnicalReturnCode: result.Envelope.TechnicalReturnCode,
		BusinessReturnCode:  result.Envelope.BusinessReturnCode,
		ReportText:          result.Envelope.ReportText,
	}, nil
}

// CDD uploads a SEPA Direct Debit.
func (c *Client) CDD(ctx context.Context, params order.CddParams) (order.CddResult, error) {
	result, err := c.run(ctx, command.NewCddCommand(c.cfg, params), "CDD")
	if err != nil {
		return order.CddResult{}, err
	}
	return order.CddResult{
		TechnicalReturnCode: result.Envelope.TechnicalReturnCode,
		BusinessReturnCode:  result.Envelope.BusinessReturnCode,
		ReportText:          result.Envelope.ReportText,
	}, nil
}

// SPR suspends the client's EBICS access.
func (c *Client) SPR(ctx context.Context) (order.SprResult, error) {
	result, err := c.run(ctx, command.NewSprCommand(c.cfg), "SPR")
	if err != nil {
		return order.SprResult{}, err
	}
	return order.SprResult{
		TechnicalReturnCode: result.Envelope.TechnicalReturnCode,
		ReportText:          result.Envelope.ReportText,
	}, nil
}

// HPD downloads the bank's parameter document.
func (c *Client) HPD(ctx context.Context) (order.HpdResult, error) {
	result, err := c.run(ctx, command.NewHpdCommand(c.cfg), "HPD")
	if err != nil {
		return order.HpdResult{}, err
	}
	hpd, _ := result.Payload.(order.HpdResult)
	hpd.TechnicalReturnCode = result.Envelope.TechnicalReturnCode
	hpd.ReportText = result.Envelope.ReportText
	return hpd, nil
}
