//go:build windows

// Package main provides Windows service support for the generation backend.
//
// service_windows.go implements the Windows Service interface using
// github.com/kardianos/service so the application can run as a background
// service with proper Start/Stop handling.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kardianos/service"
)

// Program implements service.Interface for Windows Service integration.
type Program struct {
	// exit is closed when the application run loop returns
	exit chan struct{}
}

// Start is called when the service is started.
// It launches the application run loop in a goroutine.
func (p *Program) Start(s service.Service) error {
	p.exit = make(chan struct{})

	go func() {
		defer close(p.exit)
		run()
	}()

	return nil
}

// Stop is called when the service is stopped.
// It signals the application to shut down and waits for the run loop to exit.
func (p *Program) Stop(s service.Service) error {
	// The run loop installs its own signal handling; a process-level
	// interrupt triggers the same graceful path as Ctrl+C.
	proc, err := os.FindProcess(os.Getpid())
	if err == nil {
		_ = proc.Signal(os.Interrupt)
	}

	select {
	case <-p.exit:
	case <-time.After(45 * time.Second):
		return fmt.Errorf("timeout waiting for service to stop")
	}

	return nil
}

// ServiceConfig returns the service configuration for Windows.
func ServiceConfig() *service.Config {
	return &service.Config{
		Name:        "StudioObjectGen",
		DisplayName: "Studio Object Generation Service",
		Description: "Generates 3D objects and preview renders from text prompts via external AI providers",
		Option: service.KeyValue{
			"StartType": "automatic",
		},
	}
}

// RunAsService runs the application as a Windows service.
// Returns true if running as a service, false if running interactively.
func RunAsService() (bool, error) {
	prg := &Program{}

	s, err := service.New(prg, ServiceConfig())
	if err != nil {
		return false, fmt.Errorf("failed to create service: %w", err)
	}

	if service.Interactive() {
		return false, nil
	}

	if err := s.Run(); err != nil {
		return true, fmt.Errorf("service run failed: %w", err)
	}

	return true, nil
}

// HandleServiceCommand handles install/uninstall/start/stop/restart commands.
// Returns true if a service command was recognized and executed.
func HandleServiceCommand(args []string) bool {
	if len(args) == 0 {
		return false
	}

	cmd := args[0]
	switch cmd {
	case "install", "uninstall", "start", "stop", "restart":
	default:
		return false
	}

	prg := &Program{}
	s, err := service.New(prg, ServiceConfig())
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		os.Exit(1)
	}

	if err := service.Control(s, cmd); err != nil {
		fmt.Printf("Service %s failed: %v\n", cmd, err)
		os.Exit(1)
	}

	fmt.Printf("Service %s completed\n", cmd)
	return true
}
