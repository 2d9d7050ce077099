package domain

import "testing"

func TestAllowedDestinationsChain(t *testing.T) {
	cases := []struct {
		source Role
		want   []Role
	}{
		{RoleProprietaire, []Role{RoleConseilSyndical}},
		{RoleConseilSyndical, []Role{RoleSyndic}},
		{RoleSyndic, []Role{RoleASL}},
		{RoleASL, []Role{RoleProprietaire, RoleConseilSyndical, RoleSyndic, RoleASL}},
		{RoleSuperadmin, []Role{RoleProprietaire, RoleConseilSyndical, RoleSyndic, RoleASL}},
		{RolePending, nil},
		{Role("unknown"), nil},
	}
	for _, tc := range cases {
		got := AllowedDestinations(tc.source)
		if len(got) != len(tc.want) {
			t.Errorf("AllowedDestinations(%s) = %v, want %v", tc.source, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("AllowedDestinations(%s)[%d] = %s, want %s", tc.source, i, got[i], tc.want[i])
			}
		}
	}
}

func TestChainIsStrictTotalOrder(t *testing.T) {
	chain := []Role{RoleProprietaire, RoleConseilSyndical, RoleSyndic, RoleASL}
	for i, lower := range chain {
		if lower.Outranks(lower) {
			t.Errorf("%s must not outrank itself", lower)
		}
		for _, higher := range chain[i+1:] {
			if !higher.Outranks(lower) {
				t.Errorf("%s should outrank %s", higher, lower)
			}
			if lower.Outranks(higher) {
				t.Errorf("%s should not outrank %s", lower, higher)
			}
		}
	}
}

func TestCanAddressRejectsSkipsAndDowngrades(t *testing.T) {
	if CanAddress(RoleProprietaire, RoleSyndic) {
		t.Error("proprietaire must not skip conseil_syndical")
	}
	if CanAddress(RoleSyndic, RoleConseilSyndical) {
		t.Error("syndic must not address down the chain")
	}
	if CanAddress(RolePending, RoleConseilSyndical) {
		t.Error("pending may address nothing")
	}
	if !CanAddress(RoleSuperadmin, RoleProprietaire) {
		t.Error("superadmin may address any chain role")
	}
}

func TestAllowedDestinationsCopyIsolated(t *testing.T) {
	dests := AllowedDestinations(RoleASL)
	dests[0] = RolePending
	if got := AllowedDestinations(RoleASL)[0]; got != RoleProprietaire {
		t.Errorf("mutating a returned slice leaked into the chain: got %s", got)
	}
}
