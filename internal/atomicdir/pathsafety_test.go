package atomicdir

import "testing"

func TestNormalizePath(t *testing.T) {
	const dirName = "mygame"
	cases := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "simple", path: "resources/a.map", want: "resources/a.map"},
		{name: "dot folded", path: "./resources/./a.map", want: "resources/a.map"},
		{name: "internal updir resolved", path: "resources/sub/../a.map", want: "resources/a.map"},
		{name: "absolute rejected", path: "/etc/passwd", wantErr: true},
		{name: "escapes above root", path: "../a.map", wantErr: true},
		{name: "escapes above root after descent", path: "a/../../b", wantErr: true},
		{name: "empty", path: "", wantErr: true},
		{name: "normalizes to empty", path: ".", wantErr: true},
		{name: "reserved commit prefix", path: dirName + commitSuffix, wantErr: true},
		{name: "reserved temp prefix", path: dirName + tempPrefix + "abc/x", wantErr: true},
		{name: "reserved old prefix", path: dirName + oldPrefix + "abc", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizePath(dirName, tc.path)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("NormalizePath(%q) = %q, want an error", tc.path, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePath(%q): unexpected error: %v", tc.path, err)
			}
			if got != tc.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}
