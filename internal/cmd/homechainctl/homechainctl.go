// Package homechainctl is a small client for the registry service: it
// submits transactions and reads properties, people, and the event journal.
package homechainctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/homechain/internal/platform/cmd"
	"github.com/louisbranch/homechain/internal/platform/config"
	platformgrpc "github.com/louisbranch/homechain/internal/platform/grpc"
	"github.com/louisbranch/homechain/internal/platform/logging"
	"github.com/louisbranch/homechain/internal/platform/requestctx"
	"github.com/louisbranch/homechain/internal/services/homechain/api/grpc/transactions"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const envPrefix = "HOMECHAINCTL_"

const usage = `usage: homechainctl [flags] <command> [args]

commands:
  submit <type> <payload-json>   submit a transaction
  property <id>                  show a property and its offers
  person <id>                    show a person and their mortgage
  events [after-seq] [page-size] list journal events`

// Config holds homechainctl configuration.
type Config struct {
	Addr      string        `env:"ADDR" envDefault:"localhost:8090"`
	ActorType string        `env:"ACTOR_TYPE" envDefault:"system"`
	ActorID   string        `env:"ACTOR_ID"`
	Locale    string        `env:"LOCALE"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"5s"`
	LogLevel  string        `env:"LOG_LEVEL" envDefault:"warn"`
	Args      []string
}

// ParseConfig reads HOMECHAINCTL_* variables and then flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnvWithPrefix(&cfg, envPrefix); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "registry server address")
	fs.StringVar(&cfg.ActorType, "actor-type", cfg.ActorType, "submitting participant role")
	fs.StringVar(&cfg.ActorID, "actor-id", cfg.ActorID, "submitting participant id")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for error messages")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-call timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Args = fs.Args()
	return cfg, nil
}

type call struct {
	method string
	req    *structpb.Struct
}

func buildCall(args []string) (call, error) {
	if len(args) == 0 {
		return call{}, errors.New(usage)
	}
	switch args[0] {
	case "submit":
		if len(args) != 3 {
			return call{}, errors.New("submit needs <type> <payload-json>")
		}
		payload := &structpb.Struct{}
		if err := protojson.Unmarshal([]byte(args[2]), payload); err != nil {
			return call{}, fmt.Errorf("payload: %w", err)
		}
		return call{method: transactions.SubmitMethod, req: &structpb.Struct{Fields: map[string]*structpb.Value{
			"type":    structpb.NewStringValue(args[1]),
			"payload": structpb.NewStructValue(payload),
		}}}, nil
	case "property", "person":
		if len(args) != 2 {
			return call{}, fmt.Errorf("%s needs <id>", args[0])
		}
		method := transactions.GetPropertyMethod
		if args[0] == "person" {
			method = transactions.GetPersonMethod
		}
		return call{method: method, req: &structpb.Struct{Fields: map[string]*structpb.Value{
			"id": structpb.NewStringValue(args[1]),
		}}}, nil
	case "events":
		fields := map[string]*structpb.Value{}
		for i, name := range []string{"after_seq", "page_size"} {
			if len(args) <= i+1 {
				break
			}
			n, err := strconv.ParseUint(args[i+1], 10, 32)
			if err != nil {
				return call{}, fmt.Errorf("%s: %w", name, err)
			}
			fields[name] = structpb.NewNumberValue(float64(n))
		}
		return call{method: transactions.ListEventsMethod, req: &structpb.Struct{Fields: fields}}, nil
	}
	return call{}, fmt.Errorf("unknown command %q\n%s", args[0], usage)
}

// Run executes one command against the registry and writes the JSON
// response to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	c, err := buildCall(cfg.Args)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, entrypoint.ServiceHomechainctl)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	conn, err := platformgrpc.DialWithHealth(ctx, cfg.Addr, transactions.ServiceName, cfg.Timeout, logging.Printf(logger))
	if err != nil {
		return err
	}
	defer conn.Close()

	callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	callCtx = requestctx.OutgoingContext(callCtx, requestctx.Actor{Type: cfg.ActorType, ID: cfg.ActorID}, cfg.Locale)

	resp := &structpb.Struct{}
	if err := conn.Invoke(callCtx, c.method, c.req, resp); err != nil {
		return describe(err)
	}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// describe renders a status error with its reason and localized message.
func describe(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var reason, message string
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			reason = d.GetReason()
		case *errdetails.LocalizedMessage:
			message = d.GetMessage()
		}
	}
	if reason == "" {
		return fmt.Errorf("%s: %s", st.Code(), st.Message())
	}
	return fmt.Errorf("%s %s: %s", st.Code(), reason, strings.TrimSpace(message))
}
