package frontend

import (
	"errors"
	"testing"
)

func TestApplyPatch(t *testing.T) {
	orig := "var a = 1;\nvar b = 2;\nvar c = 3;\n"

	for _, tc := range []struct {
		name, patch, want string
		err             error
	}{
		{
			name: "replace",
			patch: `--- a/f.js
+++ b/f.js
@@ -1,3 +1,3 @@
 var a = 1;
-var b = 2;
+var b = 4;
 var c = 3;
`,
			want: "var a = 1;\nvar b = 4;\nvar c = 3;\n",
		},
		{
			name: "insert",
			patch: `--- a/f.js
+++ b/f.js
@@ -2,0 +3,1 @@
+b++;
`,
			want: "var a = 1;\nvar b = 2;\nb++;\nvar c = 3;\n",
		},
		{
			name: "mismatch",
			patch: `--- a/f.js
+++ b/f.js
@@ -1,2 +1,2 @@
 var a = 1;
-var x = 2;
+var x = 3;
`,
			err: ErrPatch,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ApplyPatch([]byte(orig), []byte(tc.patch))
			switch {
			case tc.err != nil:
				if !errors.Is(err, tc.err) {
					t.Errorf("expected %v, got %v", tc.err, err)
				}
			case err != nil:
				t.Errorf("unexpected error: %v", err)
			case string(got) != tc.want:
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
