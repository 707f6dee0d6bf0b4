// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/relabs-tech/myahrs_driver/internal/bus"
	"github.com/relabs-tech/myahrs_driver/internal/config"
	"github.com/relabs-tech/myahrs_driver/internal/msgs"
	"github.com/relabs-tech/myahrs_driver/internal/orientation"
)

// RunConsoleMQTT prints everything the driver publishes until ctx is
// done.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, logger *zap.Logger, w io.Writer) error {
	client, err := bus.Connect(bus.MQTTOptions{
		Broker:   cfg.MQTTBroker,
		ClientID: cfg.MQTTClientID + "-console",
	}, logger)
	if err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	defer client.Close()

	if err := SubscribeConsole(client, bus.Topics{
		IMU: cfg.TopicIMU,
		Mag: cfg.TopicMag,
		TF:  cfg.TopicTF,
	}, w, logger); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("console: shutting down")
	return nil
}

// SubscribeConsole subscribes to the three driver topics and writes one
// line per message to w.
func SubscribeConsole(client bus.Client, topics bus.Topics, w io.Writer, logger *zap.Logger) error {
	onErr := func(err error) {
		logger.Warn("console: bad payload", zap.Error(err))
	}

	if err := bus.SubscribeJSON(client, topics.IMU, func(m msgs.Imu) {
		p := orientation.PoseFromQuaternion(m.Orientation.Number())
		a, g := m.LinearAcceleration, m.AngularVelocity
		fmt.Fprintf(w,
			"[IMU ] %s #%d  ROLL=%7.2f PITCH=%7.2f YAW=%7.2f  ax=%7.3f ay=%7.3f az=%7.3f  gx=%7.3f gy=%7.3f gz=%7.3f\n",
			m.Header.FrameID, m.Header.Seq, p.Roll, p.Pitch, p.Yaw,
			a.X, a.Y, a.Z, g.X, g.Y, g.Z,
		)
	}, onErr); err != nil {
		return err
	}

	if err := bus.SubscribeJSON(client, topics.Mag, func(m msgs.MagneticField) {
		b := m.MagneticField
		fmt.Fprintf(w, "[MAG ] %s #%d  mx=%.3e my=%.3e mz=%.3e T\n",
			m.Header.FrameID, m.Header.Seq, b.X, b.Y, b.Z)
	}, onErr); err != nil {
		return err
	}

	return bus.SubscribeJSON(client, topics.TF, func(m msgs.TransformStamped) {
		t := m.Transform.Translation
		p := orientation.PoseFromQuaternion(m.Transform.Rotation.Number())
		fmt.Fprintf(w, "[TF  ] %s -> %s  t=(%.2f, %.2f, %.2f)  ROLL=%7.2f PITCH=%7.2f YAW=%7.2f\n",
			m.Header.FrameID, m.ChildFrameID, t.X, t.Y, t.Z, p.Roll, p.Pitch, p.Yaw)
	}, onErr)
}
