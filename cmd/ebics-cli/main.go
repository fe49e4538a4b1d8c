// Command ebics-cli drives one EBICS order type against a configured
// bank host, printing the result. It exists to demonstrate the client
// façade end to end, not as a production operator tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sirosfoundation/go-ebics/ebics"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsconfig"
	"github.com/sirosfoundation/go-ebics/pkg/order"
)

func main() {
	configPath := flag.String("config", "ebics.yaml", "path to the EBICS client config file")
	orderType := flag.String("order", "INI", "order type to run: INI, HIA, HPB, PTK, STA, CCT, CDD, SPR, HPD")
	startDate := flag.String("start", "", "start date (YYYY-MM-DD) for PTK/STA")
	endDate := flag.String("end", "", "end date (YYYY-MM-DD) for PTK/STA")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := ebicsconfig.Load(*configPath)
	if err != nil {
		log.Error("loading config", "error", err)
		os.Exit(1)
	}

	client := ebics.New(cfg, ebics.WithLogger(log))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := run(ctx, client, *orderType, *startDate, *endDate); err != nil {
		log.Error("order failed", "order_type", *orderType, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *ebics.Client, orderType, start, end string) error {
	switch orderType {
	case "INI":
		result, err := client.INI(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("INI: technical=%s report=%s\n", result.TechnicalReturnCode, result.ReportText)
	case "HIA":
		result, err := client.HIA(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("HIA: technical=%s report=%s\n", result.TechnicalReturnCode, result.ReportText)
	case "HPB":
		result, err := client.HPB(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("HPB: technical=%s report=%s auth_digest=%x\n", result.TechnicalReturnCode, result.ReportText, result.Keys.AuthDigest)
	case "PTK":
		result, err := client.PTK(ctx, order.PtkParams{StartDate: start, EndDate: end})
		if err != nil {
			return err
		}
		fmt.Printf("PTK: technical=%s\n%s\n", result.TechnicalReturnCode, result.LogText)
	case "STA":
		result, err := client.STA(ctx, order.StaParams{StartDate: start, EndDate: end})
		if err != nil {
			return err
		}
		fmt.Printf("STA: technical=%s\n%s\n", result.TechnicalReturnCode, result.MT940Text)
	case "SPR":
		result, err := client.SPR(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("SPR: technical=%s report=%s\n", result.TechnicalReturnCode, result.ReportText)
	case "HPD":
		result, err := client.HPD(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("HPD: technical=%s access=%+v protocol=%+v\n", result.TechnicalReturnCode, result.Access, result.Protocol)
	case "CCT", "CDD":
		return fmt.Errorf("%s requires a payment payload; use the ebics package directly", orderType)
	default:
		return fmt.Errorf("unknown order type %q", orderType)
	}
	return nil
}
