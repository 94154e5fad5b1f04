package procexec

import "os"

// minimalEnv builds the child's environment from scratch: PATH plus a fixed
// UTF-8 locale, per spec.md §4.5 step 1. Unlike the teacher's native runtime
// (which forwarded the full parent environment), nothing from the parent
// process's environment is inherited beyond PATH, since an inherited secret
// or proxy variable would be invisible to the sanitizer and the target
// policy.
func minimalEnv() []string {
	path := os.Getenv("PATH")
	if path == "" {
		path = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"
	}
	return []string{
		"PATH=" + path,
		"LANG=C.UTF-8",
		"LC_ALL=C.UTF-8",
	}
}
