// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Kampi/SensorHub/internal/config"
	"github.com/Kampi/SensorHub/sensorhub"
)

var errStopped = errors.New("client stopped")

type Client struct {
	client    mqtt.Client
	cfg       config.Config
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool
	sequence  int

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewClient(cfg config.Config, logger *slog.Logger) (*Client, error) {
	if cfg.MQTTBroker == "" {
		return nil, fmt.Errorf("mqtt broker not configured")
	}
	c := &Client{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// Brokers show the station offline when the link drops.
	opts.SetWill(statusTopic(cfg.StationID), "offline", 1, true)

	opts.SetOnConnectHandler(func(cl mqtt.Client) {
		c.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
		cl.Publish(statusTopic(cfg.StationID), 1, true, "online")
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	c.client = mqtt.NewClient(opts)
	return c, nil
}

// Connect waits for the initial connection. It returns early when ctx is
// done or Disconnect is called.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.stopCh:
		return errStopped
	default:
	}

	if c.IsConnected() {
		return nil
	}

	token := c.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			return errStopped
		default:
		}
	}
}

// Publish sends r to stations/<id>/telemetry.
func (c *Client) Publish(r sensorhub.Reading) error {
	if !c.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	c.mu.Lock()
	c.sequence++
	seq := c.sequence
	c.mu.Unlock()

	topic := telemetryTopic(c.cfg.StationID)
	data, err := json.Marshal(NewTelemetry(c.cfg.StationID, seq, r))
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}

	token := c.client.Publish(topic, 1, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		c.logger.Error("failed to publish telemetry", "topic", topic, "error", err)
		return fmt.Errorf("publish telemetry: %w", err)
	}

	c.logger.Debug("published telemetry", "topic", topic, "sequence", seq)
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	return connected && c.client.IsConnected()
}

// Disconnect stops the client. It is safe to call more than once.
func (c *Client) Disconnect() {
	c.stopOnce.Do(func() { close(c.stopCh) })

	if c.client.IsConnected() {
		t := c.client.Publish(statusTopic(c.cfg.StationID), 1, true, "offline")
		t.WaitTimeout(time.Second)
	}
	c.client.Disconnect(250)

	c.setConnected(false)
	c.logger.Info("mqtt disconnected")
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func telemetryTopic(station string) string {
	return fmt.Sprintf("stations/%s/telemetry", station)
}

func statusTopic(station string) string {
	return fmt.Sprintf("stations/%s/status", station)
}
