// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package msgs

import (
	"encoding/json"
	"math"
)

// jsonFloat writes NaN and ±Inf as null and reads null back as NaN.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *jsonFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = jsonFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

type vector3JSON struct {
	X jsonFloat `json:"x"`
	Y jsonFloat `json:"y"`
	Z jsonFloat `json:"z"`
}

func (v Vector3) MarshalJSON() ([]byte, error) {
	return json.Marshal(vector3JSON{jsonFloat(v.X), jsonFloat(v.Y), jsonFloat(v.Z)})
}

func (v *Vector3) UnmarshalJSON(b []byte) error {
	var w vector3JSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*v = Vector3{X: float64(w.X), Y: float64(w.Y), Z: float64(w.Z)}
	return nil
}

type quaternionJSON struct {
	X jsonFloat `json:"x"`
	Y jsonFloat `json:"y"`
	Z jsonFloat `json:"z"`
	W jsonFloat `json:"w"`
}

func (q Quaternion) MarshalJSON() ([]byte, error) {
	return json.Marshal(quaternionJSON{jsonFloat(q.X), jsonFloat(q.Y), jsonFloat(q.Z), jsonFloat(q.W)})
}

func (q *Quaternion) UnmarshalJSON(b []byte) error {
	var w quaternionJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*q = Quaternion{X: float64(w.X), Y: float64(w.Y), Z: float64(w.Z), W: float64(w.W)}
	return nil
}

func (c Covariance) MarshalJSON() ([]byte, error) {
	var w [9]jsonFloat
	for i, v := range c {
		w[i] = jsonFloat(v)
	}
	return json.Marshal(w)
}

func (c *Covariance) UnmarshalJSON(b []byte) error {
	var w [9]jsonFloat
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	for i, v := range w {
		c[i] = float64(v)
	}
	return nil
}
