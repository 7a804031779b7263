package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pokewatch/dex"
	"pokewatch/events"
	"pokewatch/parser"
)

func main() {
	cataloguePath := flag.String("catalogue", "", "YAML rule catalogue (default: embedded)")
	strict := flag.Bool("strict", false, "fail on events the catalogue has no rule for")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cat := dex.Default()
	if *cataloguePath != "" {
		var err error
		cat, err = dex.Load(*cataloguePath)
		if err != nil {
			log.Fatal().Err(err).Msg("loading catalogue")
		}
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: pokewatch [flags] battle.jsonl")
		os.Exit(2)
	}
	if err := replay(cat, flag.Arg(0), *strict); err != nil {
		log.Fatal().Err(err).Msg("replay failed")
	}
}

// replay feeds a recorded battle script (one JSON event per line) through
// the parser, printing the snapshot at every decision point.
func replay(cat *dex.Catalogue, path string, strict bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var opts []parser.Option
	if strict {
		opts = append(opts, parser.Strict())
	}
	p := parser.New(cat, opts...)
	defer p.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev events.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		sig, err := p.Feed(ev)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		switch sig {
		case parser.Decide:
			fmt.Printf("decision point at %s\n", p.Snapshot())
			for _, side := range []string{"p1", "p2"} {
				for _, a := range p.Actions(side) {
					fmt.Printf("  %s: %s %s%s\n", side, a.Kind, a.Move, a.Switch)
				}
			}
		case parser.GameOver:
			fmt.Printf("game over, winner: %s\n", p.Winner())
			return scanner.Err()
		}
	}
	return scanner.Err()
}
