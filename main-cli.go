//go:build cli

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/minhanee-art/kingtire/internal/app"
	conf "github.com/minhanee-art/kingtire/internal/config"
	"github.com/minhanee-art/kingtire/internal/discount"
	"github.com/minhanee-art/kingtire/internal/logs"
	"github.com/minhanee-art/kingtire/internal/merge"
	"github.com/minhanee-art/kingtire/internal/pricing"
)

var ver = "1.0.0"

const usage = "Commands: search <size> | grade <g> | mode store|manual | set <kind> <id> <grade|ALL> <rate> | bulk <brand|All> <r3,r4,r5,rDC,rMASTER> | refresh | start | stop | status | reload | quit"

func main() {
	appDir, err := app.DataDir("kingtire")
	if err != nil {
		panic(err)
	}
	cfgPath := filepath.Join(appDir, "config.json")
	cfg, firstRun, err := conf.LoadOrCreate(cfgPath)
	if err != nil {
		panic(err)
	}
	if err := cfg.ApplyEnv(".env"); err != nil {
		panic(err)
	}

	log, logFile, err := logs.New(filepath.Join(appDir, "app.log"), false, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logFile.Close()
	if firstRun {
		fmt.Println("Default config written:", cfgPath)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, appDir, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	if cfg.AutoStart {
		if err := a.Syncer.Start(ctx); err != nil {
			fmt.Println("Refresher start failed:", err)
		}
	}

	cust := merge.Customer{Grade: discount.GradeNormal, Mode: merge.ModeStore}

	fmt.Println("kingtire CLI", ver)
	fmt.Println(usage)
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "search":
			if len(fields) < 2 {
				fmt.Println("usage: search <size>")
				continue
			}
			products, err := a.Engine.Search(ctx, strings.Join(fields[1:], " "), cust)
			if err != nil {
				fmt.Println("Search error:", err)
				continue
			}
			for _, p := range products {
				fmt.Printf("%-12s %-10s %-28s %-16s stock %-4d %s원 (-%s%%, %s) -> %s원\n",
					p.Code, p.Brand, p.Model, p.Size, p.TotalStock,
					pricing.FormatWon(p.FactoryPrice), strconv.FormatFloat(p.DiscountRate, 'f', -1, 64),
					p.DiscountSource, pricing.FormatWon(p.FinalPrice))
			}
			fmt.Println(len(products), "products")

		case "grade":
			if len(fields) != 2 {
				fmt.Println("usage: grade <PENDING|NORMAL|3|4|5|DC|MASTER|ADMIN>")
				continue
			}
			g, err := discount.ParseGrade(fields[1])
			if err != nil {
				fmt.Println(err)
				continue
			}
			cust.Grade = g
			fmt.Println("Grade:", g)

		case "mode":
			if len(fields) != 2 {
				fmt.Println("usage: mode store|manual")
				continue
			}
			cust.Mode = merge.ParseMode(fields[1])
			fmt.Println("Mode:", cust.Mode)

		case "set":
			if err := setDiscount(ctx, a.Admin, fields[1:]); err != nil {
				fmt.Println("Set error:", err)
				continue
			}
			fmt.Println("Saved")

		case "bulk":
			if len(fields) != 3 {
				fmt.Println("usage: bulk <brand|All> <r3,r4,r5,rDC,rMASTER>")
				continue
			}
			entries, err := a.Catalog.Fetch(ctx)
			if err != nil {
				fmt.Println("Catalog error:", err)
				continue
			}
			groups := discount.PatternGroups(entries, a.AllowedBrands())
			rates := discount.ParseRateList(fields[2], discount.ManagedGrades)
			n, err := a.Admin.ApplyBrandPatterns(ctx, fields[1], groups, rates)
			if err != nil {
				fmt.Printf("Stopped after %d patterns: %v\n", n, err)
				continue
			}
			fmt.Println("Patterns updated:", n)

		case "refresh":
			entries, err := a.Catalog.Refresh(ctx)
			if err != nil {
				fmt.Println("Refresh error:", err)
				continue
			}
			fmt.Println("Catalog entries:", len(entries))

		case "start":
			if err := a.Syncer.Start(ctx); err != nil {
				fmt.Println("Start error:", err)
				continue
			}
			fmt.Println("Refresher running")
		case "stop":
			a.Syncer.Stop()
			fmt.Println("Refresher stopped")
		case "status":
			if a.Syncer.IsRunning() {
				fmt.Println("Refresher: RUNNING")
			} else {
				fmt.Println("Refresher: STOPPED")
			}
			for _, st := range a.Syncer.Status() {
				fmt.Printf("  %-9s runs %-4d last %s took %s %s\n", st.Name, st.Runs, st.LastRun.Format(time.RFC3339), st.Took, st.Err)
			}
			if at, ok := a.LastRefresh(); ok {
				fmt.Println("Catalog refreshed:", at.Local().Format(time.RFC3339))
			}
			fmt.Println("Discount entries:", a.Table.Len(), "| sessions:", a.Sessions.Len())
		case "reload":
			newCfg, _, err := conf.LoadOrCreate(cfgPath)
			if err == nil {
				err = newCfg.ApplyEnv(".env")
			}
			if err == nil {
				err = a.Reload(newCfg)
			}
			if err != nil {
				log.Error().Err(err).Msg("reload failed")
				fmt.Println("Reload error:", err)
				continue
			}
			fmt.Println("Config reloaded")
		case "quit", "exit":
			cancel()
			a.Syncer.Stop()
			time.Sleep(50 * time.Millisecond)
			return
		default:
			fmt.Println(usage)
		}
	}
}

// setDiscount handles "set <kind> <id> <grade|ALL> <rate>". Pattern and model
// ids are written brand|name.
func setDiscount(ctx context.Context, admin *discount.Admin, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: set <code|pattern|size|model> <id> <grade|ALL> <rate>")
	}
	kind, err := discount.ParseKind(args[0])
	if err != nil {
		return err
	}
	var k discount.Key
	switch kind {
	case discount.KindCode:
		k = discount.CodeKey(args[1])
	case discount.KindSize:
		k = discount.SizeKey(args[1])
	default:
		brand, name, _ := strings.Cut(args[1], "|")
		if kind == discount.KindPattern {
			k = discount.PatternKey(brand, name)
		} else {
			k = discount.ModelKey(brand, name)
		}
	}
	rate, ok := pricing.ParseRate(args[3])
	if !ok {
		return fmt.Errorf("rate required")
	}
	if strings.EqualFold(args[2], "ALL") {
		return admin.ApplyAllGrades(ctx, k, rate)
	}
	g, err := discount.ParseGrade(args[2])
	if err != nil {
		return err
	}
	return admin.Set(ctx, k, g, rate)
}
