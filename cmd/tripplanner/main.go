// Package main is the entry point for the trip planner service.
package main

import "github.com/kart-io/tripplanner/cmd/tripplanner/app"

func main() {
	app.NewApp().Run()
}
