// Package app runs the interactive skew session: ask for a ticker, a side
// and a maturity, then plot the implied volatility skew.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"volskew/internal/marketdata"
	"volskew/internal/plotting"
	"volskew/internal/prompt"
	"volskew/internal/provider"
	"volskew/internal/skew"
)

const (
	TickerPrompt = "Input the ticker to analyze "

	NoMaturitiesMessage = "No maturities available after cleaning the data base."

	sideBoth = "both"
)

var sideChoice = prompt.Choice{
	Prompt:  "From which kind of options you want to model the Skew ? (calls / puts / both) ",
	Invalid: "Invalid option type. Please choose one from calls / puts / both.",
	Retry:   "Which kind of options: ",
	Allowed: []string{string(provider.Calls), string(provider.Puts), sideBoth},
}

func maturityChoice(maturities []string) prompt.Choice {
	return prompt.Choice{
		Prompt:  "Input one of the maturity above ",
		Invalid: "Invalid maturity. Please choose one from the list.",
		Retry:   "Input one of the maturity above: ",
		Allowed: maturities,
	}
}

// Displayer presents a finished figure and returns once the user is done with it.
type Displayer interface {
	Show(ctx context.Context, s *plotting.Surface) error
}

// App wires a provider, the console and a displayer into one session.
type App struct {
	Provider       provider.Provider
	Prompter       *prompt.Prompter
	Display        Displayer
	Filter         marketdata.Filter
	MaxStrikeRatio float64
}

// Run performs one session. Running out of usable maturities is reported on
// the console and is not an error.
func (a *App) Run(ctx context.Context) error {
	out := a.Prompter.Out()

	ticker, err := a.Prompter.Ask(TickerPrompt)
	if err != nil {
		return err
	}
	src, err := marketdata.New(ctx, a.Provider, ticker)
	if err != nil {
		return err
	}
	logger := log.WithFields(log.Fields{"ticker": src.Ticker, "spot": src.Spot})

	side, err := a.Prompter.Choose(sideChoice)
	if err != nil {
		return err
	}

	if side == sideBoth {
		err = a.runBoth(ctx, src, out)
	} else {
		err = a.runSide(ctx, src, provider.Side(side), out)
	}
	if errors.Is(err, marketdata.ErrNoMaturities) {
		logger.WithField("side", side).Info("nothing to plot")
		fmt.Fprintln(out, NoMaturitiesMessage)
		return nil
	}
	return err
}

func (a *App) runSide(ctx context.Context, src *marketdata.Source, side provider.Side, out io.Writer) error {
	chains, err := a.fetchClean(ctx, src, side)
	if err != nil {
		return err
	}
	maturities := chains.Maturities()
	if len(maturities) == 0 {
		return marketdata.ErrNoMaturities
	}

	writeMaturities(out, maturities, map[provider.Side]marketdata.Chains{side: chains}, side)
	maturity, err := a.Prompter.Choose(maturityChoice(maturities))
	if err != nil {
		return err
	}

	curve, err := skew.NewCurve(chains, side, maturity, src.Spot, src.Ticker, a.MaxStrikeRatio)
	if err != nil {
		return err
	}
	surface := plotting.NewSurface(12, 8)
	surface.SetTitle(fmt.Sprintf("%s Volatility Skew Modeling from %s options, maturity = %s", src.Ticker, side.Singular(), maturity))
	if err := curve.Render(surface); err != nil {
		return err
	}
	writeSummaries(out, curve)
	return a.Display.Show(ctx, surface)
}

func (a *App) runBoth(ctx context.Context, src *marketdata.Source, out io.Writer) error {
	calls, err := a.fetchClean(ctx, src, provider.Calls)
	if err != nil {
		return err
	}
	puts, err := a.fetchClean(ctx, src, provider.Puts)
	if err != nil {
		return err
	}
	maturities := marketdata.CommonMaturities(calls, puts)
	if len(maturities) == 0 {
		return marketdata.ErrNoMaturities
	}

	writeMaturities(out, maturities, map[provider.Side]marketdata.Chains{provider.Calls: calls, provider.Puts: puts}, provider.Calls, provider.Puts)
	maturity, err := a.Prompter.Choose(maturityChoice(maturities))
	if err != nil {
		return err
	}

	callCurve, err := skew.NewCurve(calls, provider.Calls, maturity, src.Spot, src.Ticker, a.MaxStrikeRatio)
	if err != nil {
		return err
	}
	putCurve, err := skew.NewCurve(puts, provider.Puts, maturity, src.Spot, src.Ticker, a.MaxStrikeRatio)
	if err != nil {
		return err
	}

	surface := plotting.NewSurface(14, 8)
	surface.SetTitle(fmt.Sprintf("%s Volatility Skew Modeling, maturity = %s", src.Ticker, maturity))
	for _, c := range []*skew.Curve{callCurve, putCurve} {
		if err := c.Render(surface); err != nil {
			return err
		}
	}
	writeSummaries(out, callCurve, putCurve)
	return a.Display.Show(ctx, surface)
}

func (a *App) fetchClean(ctx context.Context, src *marketdata.Source, side provider.Side) (marketdata.Chains, error) {
	raw, err := src.FetchChain(ctx, side)
	if err != nil {
		return nil, err
	}
	cleaned := marketdata.Clean(raw, a.Filter)
	log.WithFields(log.Fields{
		"ticker":  src.Ticker,
		"side":    side,
		"fetched": len(raw),
		"kept":    len(cleaned),
	}).Debug("maturities after cleaning")
	return cleaned, nil
}

// PrintChain writes the cleaned quotes of one side and maturity of ticker.
// An empty maturity selects the nearest one the provider lists.
func (a *App) PrintChain(ctx context.Context, ticker string, side provider.Side, maturity string, w io.Writer) error {
	src, err := marketdata.New(ctx, a.Provider, ticker)
	if err != nil {
		return err
	}
	if maturity == "" {
		if len(src.Maturities) == 0 {
			return fmt.Errorf("%s: %w", src.Ticker, marketdata.ErrNoMaturities)
		}
		maturity = src.Maturities[0]
	}

	chain, err := a.Provider.Chain(ctx, src.Ticker, maturity)
	if err != nil {
		return &marketdata.ProviderError{Provider: a.Provider.Name(), Op: "chain " + maturity, Ticker: src.Ticker, Err: err}
	}
	cleaned := marketdata.Clean(marketdata.Chains{maturity: chain.Side(side)}, a.Filter)

	fmt.Fprintf(w, "%s %s %s (spot %.2f)\n", src.Ticker, side, maturity, src.Spot)
	writeChain(w, cleaned[maturity], src.Spot)
	return nil
}
