// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rar5core

import "testing"

func TestWindowSizeForPropertiesClampsToMinimum(t *testing.T) {
	size, err := WindowSizeForProperties(0, 0)
	if err != nil {
		t.Fatalf("WindowSizeForProperties(0,0): %v", err)
	}
	if size != minWindowSize {
		t.Fatalf("size = %d, want minWindowSize %d", size, minWindowSize)
	}
}

func TestWindowSizeForPropertiesAtTheLimit(t *testing.T) {
	size, err := WindowSizeForProperties(14, 0)
	if err != nil {
		t.Fatalf("WindowSizeForProperties(14,0): %v", err)
	}
	if size != windowSizeLimit {
		t.Fatalf("size = %d, want windowSizeLimit %d", size, windowSizeLimit)
	}
}

func TestWindowSizeForPropertiesRejectsOverLimit(t *testing.T) {
	if _, err := WindowSizeForProperties(15, 0); err == nil {
		t.Fatal("expected an error for pow=15, frac=0")
	}
	if _, err := WindowSizeForProperties(14, 31); err == nil {
		t.Fatal("expected an error for pow=14, frac=31")
	}
}

func TestPropertiesAccessors(t *testing.T) {
	// pow=5; byte 1: frac=17 (bits 3-7), v7 set (bit 1), solid set (bit 0).
	p := Properties{5, (17 << 3) | 0x02 | 0x01}
	if p.Pow() != 5 {
		t.Fatalf("Pow() = %d, want 5", p.Pow())
	}
	if p.Frac() != 17 {
		t.Fatalf("Frac() = %d, want 17", p.Frac())
	}
	if !p.V7() {
		t.Fatal("V7() = false, want true")
	}
	if !p.Solid() {
		t.Fatal("Solid() = false, want true")
	}
}
