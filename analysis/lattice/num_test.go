package lattice

import "testing"

func TestNumVal(t *testing.T) {
	tests := []struct {
		lit      string
		expected string
		tag      NumTag
	}{
		{"1", "1", NVal},
		{"1.0", "1", NVal},
		{"0x10", "16", NVal},
		{"1_000", "1000", NVal},
		{"0", "0", NVal},
		{"Infinity", "Infinity", NVal},
	}

	for _, test := range tests {
		n := NumVal(test.lit)
		if v, ok := n.Value(); !ok || v != test.expected {
			t.Errorf("NumVal(%q) = %q, expected %q", test.lit, v, test.expected)
		}
		if n.Tag() != test.tag {
			t.Errorf("NumVal(%q).Tag() = %d, expected %d", test.lit, n.Tag(), test.tag)
		}
	}

	if !NumVal("0").IsZero() {
		t.Errorf("0 is expected to be zero")
	}
	if NumVal("0").MaybeTruthy() {
		t.Errorf("0 is not expected to be truthy")
	}
}

func TestNumJoin(t *testing.T) {
	tests := []struct {
		a, b     Num
		expected Num
	}{
		{NumVal("1"), NumVal("1.0"), NumVal("1")},
		{NumVal("1"), NumVal("2"), Num{classes: numFinite}},
		{NumVal("0"), NumVal("3"), NewNum(NReal)},
		{NewNum(NNaN), NumVal("0"), NewNum(NNaNZero)},
		{NumBot(), NumVal("7"), NumVal("7")},
	}

	for _, test := range tests {
		if res := test.a.Join(test.b); !res.Eq(test.expected) {
			t.Errorf("%s ⊔ %s = %s, expected %s", test.a, test.b, res, test.expected)
		} else {
			t.Logf("%s ⊔ %s = %s", test.a, test.b, res)
		}
	}
}

func TestNumRefine(t *testing.T) {
	if res := NumTop().Truthy(); !res.Eq(NewNum(NNotZeroNorNaN)) {
		t.Errorf("⊤ refined to truthy = %s, expected %s", res, NewNum(NNotZeroNorNaN))
	}
	if res := NumTop().Falsy(); !res.Eq(NewNum(NNaNZero)) {
		t.Errorf("⊤ refined to falsy = %s, expected %s", res, NewNum(NNaNZero))
	}
	if res := NumVal("4").Truthy(); !res.Eq(NumVal("4")) {
		t.Errorf("4 refined to truthy = %s, expected 4", res)
	}
	if res := NumVal("4").Falsy(); !res.IsBot() {
		t.Errorf("4 refined to falsy = %s, expected ⊥", res)
	}
}

func TestNewNumMisuse(t *testing.T) {
	tests := []struct {
		name string
		make func() Num
	}{
		{"value tag without value", func() Num { return NewNum(NVal) }},
		{"value with non-value tag", func() Num { return NewNum(NZero, "0") }},
		{"two values", func() Num { return NewNum(NVal, "1", "2") }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("expected a panic")
				}
			}()
			test.make()
		})
	}
}
