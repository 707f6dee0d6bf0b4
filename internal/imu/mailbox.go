// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import "sync"

// Mailbox is a single-slot holder for the most recent Sample.
// Every arrival replaces the previous one; readers always get a copy.
type Mailbox struct {
	mu     sync.Mutex
	sample Sample
	have   bool
}

// Put replaces the current sample.
func (m *Mailbox) Put(s Sample) {
	m.mu.Lock()
	m.sample = s
	m.have = true
	m.mu.Unlock()
}

// PutAndThen replaces the current sample and runs fn with it while the
// lock is still held, so fn never observes a later arrival.
func (m *Mailbox) PutAndThen(s Sample, fn func(Sample)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sample = s
	m.have = true
	fn(m.sample)
}

// Latest returns a copy of the current sample. The bool is false until
// the first Put.
func (m *Mailbox) Latest() (Sample, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sample, m.have
}
