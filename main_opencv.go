//go:build opencv

package main

import (
	_ "github.com/soocke/buoy-vision-go/opencv"
)

func init() { defaultTracker = "kcf" }
