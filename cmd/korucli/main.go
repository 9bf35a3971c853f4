// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"fmt"

	"github.com/gobuffalo/envy"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/loader"
)

func main() {
	cfg, err := core.LoadConfiguration(envy.Get("KORU_CONFIG", ""))
	if err != nil {
		log.Fatal(err)
	}
	if err := core.ConfigureLogging(cfg.Log); err != nil {
		log.Fatal(err)
	}

	l, err := loader.Open()
	if err != nil {
		log.Fatal(err)
	}
	defer l.Release()

	drv, err := device.NewVulkan(l, nil)
	if err != nil {
		log.Fatal(err)
	}

	report, err := buildReport(drv, cfg)
	if err != nil {
		log.Fatal(err)
	}

	if bytes, err := json.MarshalIndent(report, "", "  "); err == nil {
		fmt.Printf("%s\n", bytes)
	} else {
		log.Fatal(err)
	}
}
