package volume

import "testing"

func TestLookupFromExplicitMounts(t *testing.T) {
	r := NewResolverFromMounts([]Mount{
		{UUID: "1234-ABCD", MountPoint: "/media/external"},
	})
	mp, ok := r.Lookup("1234-ABCD")
	if !ok || mp != "/media/external" {
		t.Errorf("got (%q, %v), want (/media/external, true)", mp, ok)
	}
}

func TestLookupMissingUUID(t *testing.T) {
	r := NewResolverFromMounts(nil)
	if _, ok := r.Lookup("nonexistent"); ok {
		t.Error("expected not found for unregistered uuid")
	}
}

func TestUnescapeMount(t *testing.T) {
	cases := map[string]string{
		`/media/My\040Drive`: "/media/My Drive",
		`/media/plain`:       "/media/plain",
	}
	for in, want := range cases {
		if got := unescapeMount(in); got != want {
			t.Errorf("unescapeMount(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveDevPathRelative(t *testing.T) {
	got := resolveDevPath("/dev/disk/by-uuid", "../../sda1")
	if got != "/dev/sda1" {
		t.Errorf("resolveDevPath = %q, want /dev/sda1", got)
	}
}

func TestResolveDevPathAbsolute(t *testing.T) {
	got := resolveDevPath("/dev/disk/by-uuid", "/dev/sdb2")
	if got != "/dev/sdb2" {
		t.Errorf("resolveDevPath = %q, want /dev/sdb2", got)
	}
}
