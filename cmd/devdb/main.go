package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/steelsid0609/training-rcf/data"
	"github.com/steelsid0609/training-rcf/internal/database"
	"github.com/steelsid0609/training-rcf/internal/devdb"
	"github.com/steelsid0609/training-rcf/internal/logging"
	"github.com/steelsid0609/training-rcf/internal/services"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	var engineName string
	flag.StringVar(&engineName, "engine", "mariadb", "database engine ("+strings.Join(devdb.Names(), "|")+")")
	var seed bool
	flag.BoolVar(&seed, "seed", true, "load the built-in slots and colleges")
	flag.Parse()

	usage := `
Run a development database in a container, migrated and seeded, and print the
DB_* variables to point the server and rcfctl at it. Ctrl-C removes it.

Usage:

devdb [-h] [-f ENV_FILE_PATH] [-engine mariadb|postgres] [-seed=false]

example
  devdb -engine postgres > .env.dev
`
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	}

	engine, err := devdb.Lookup(engineName)
	if err != nil {
		log.Fatalf("%v\n", err)
	}

	ctx := context.Background()
	log.Printf("Starting %s (%s)...\n", engine.Name, engine.Image)
	inst, err := devdb.Start(ctx, engine)
	if err != nil {
		log.Fatalf("Failed to start database: %v\n", err)
	}
	defer func() {
		log.Printf("Terminating %s...\n", engine.Name)
		if err := inst.Terminate(context.Background()); err != nil {
			log.Printf("Failed to terminate: %v\n", err)
		}
	}()

	if err := prepare(ctx, inst, seed); err != nil {
		log.Printf("%v\n", err)
		return
	}

	for _, line := range inst.Env() {
		fmt.Println(line)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	sig := <-sigs
	log.Printf("\nReceived signal: %v\n", sig)
}

// prepare migrates and optionally seeds the new database
func prepare(ctx context.Context, inst *devdb.Instance, seed bool) error {
	connectCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	db, err := inst.Connect(connectCtx)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	if !seed {
		return nil
	}

	s, err := services.LoadSeed(bytes.NewReader(data.Seed))
	if err != nil {
		return err
	}
	res, err := services.ApplySeed(ctx, db, s, logging.Discard())
	if err != nil {
		return fmt.Errorf("failed to seed: %w", err)
	}
	log.Printf("Seeded %d slots and %d colleges\n", res.SlotsCreated, res.CollegesCreated)
	return nil
}
