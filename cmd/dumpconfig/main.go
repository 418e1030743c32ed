package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/opslens/runboard/internal/config"
)

func main() {
	confFile := flag.String("config", "", "config file path")
	flag.Parse()

	cfg, err := config.Load(config.Options{ConfigFile: *confFile})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	cfg.Exports.S3.SecretAccessKey = ""

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		log.Fatalf("encode config: %v", err)
	}
}
