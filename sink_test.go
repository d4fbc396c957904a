// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package unrar5j

import "testing"

func TestSanitizeRelPath(t *testing.T) {
	ok := []struct{ in, want string }{
		{"a.txt", "a.txt"},
		{"dir/sub/file.bin", "dir/sub/file.bin"},
		{"/leading/slash.txt", "leading/slash.txt"},
	}
	for _, tc := range ok {
		got, err := sanitizeRelPath(tc.in)
		if err != nil {
			t.Errorf("sanitizeRelPath(%q) returned error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("sanitizeRelPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	bad := []string{
		"../etc/passwd",
		"a/../../b",
		"a/b/../../../c",
		"evil\x00.txt",
	}
	for _, in := range bad {
		if _, err := sanitizeRelPath(in); err == nil {
			t.Errorf("sanitizeRelPath(%q) succeeded, want error", in)
		}
	}
}
