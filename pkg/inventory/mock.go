package inventory

import (
	"github.com/stretchr/testify/mock"
)

type MockInventory struct {
	mock.Mock
}

type LookupArgs struct {
	Name         string
	NameAnything bool
}

type LookupReturns struct {
	Package Package
	Found   bool
}

type LookupExpectation struct {
	Args    LookupArgs
	Returns LookupReturns
}

func (_m *MockInventory) ApplyLookupExpectation(e LookupExpectation) {
	var args []interface{}
	if e.Args.NameAnything {
		args = append(args, mock.Anything)
	} else {
		args = append(args, e.Args.Name)
	}
	_m.On("Lookup", args...).Return(e.Returns.Package, e.Returns.Found)
}

func (_m *MockInventory) ApplyLookupExpectations(expectations []LookupExpectation) {
	for _, e := range expectations {
		_m.ApplyLookupExpectation(e)
	}
}

// Lookup provides a mock function with given fields: name
func (_m *MockInventory) Lookup(name string) (Package, bool) {
	ret := _m.Called(name)

	var r0 Package
	if rf, ok := ret.Get(0).(func(string) Package); ok {
		r0 = rf(name)
	} else {
		r0 = ret.Get(0).(Package)
	}

	var r1 bool
	if rf, ok := ret.Get(1).(func(string) bool); ok {
		r1 = rf(name)
	} else {
		r1 = ret.Get(1).(bool)
	}

	return r0, r1
}
