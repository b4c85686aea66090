// Package config provides configuration parsing for the hooks CLI and demo
// server.
//
// The configuration is stored in hooks.json in the working directory.
// Every field is optional.
//
// # Configuration File Structure
//
//	{
//	  "storage": {
//	    "backend": "pebble",
//	    "path": ".hooks/db",
//	    "prefix": "prefs/",
//	    "cacheSize": 512
//	  },
//	  "server": {
//	    "addr": "localhost:8080"
//	  },
//	  "fetch": {
//	    "timeout": "10s"
//	  },
//	  "metrics": {
//	    "namespace": "hooks"
//	  }
//	}
//
// HOOKS_STORAGE_BACKEND, HOOKS_STORAGE_PATH and HOOKS_SERVER_ADDR override
// the file.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	medium, closeFn, err := storage.Open(ctx, cfg.Storage, metrics)
package config
