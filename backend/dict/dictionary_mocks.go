// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package dict

import (
	reflect "reflect"

	arena "github.com/Fantom-foundation/Hoard/backend/arena"
	gomock "go.uber.org/mock/gomock"
)

// MockCompactable is a mock of Compactable interface.
type MockCompactable struct {
	ctrl     *gomock.Controller
	recorder *MockCompactableMockRecorder
}

// MockCompactableMockRecorder is the mock recorder for MockCompactable.
type MockCompactableMockRecorder struct {
	mock *MockCompactable
}

// NewMockCompactable creates a new mock instance.
func NewMockCompactable(ctrl *gomock.Controller) *MockCompactable {
	mock := &MockCompactable{ctrl: ctrl}
	mock.recorder = &MockCompactableMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockCompactable) EXPECT() *MockCompactableMockRecorder {
	return m.recorder
}

// Move mocks base method.
func (m *MockCompactable) Move(ref arena.Handle) arena.Handle {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Move", ref)
	ret0, _ := ret[0].(arena.Handle)
	return ret0
}

// Move indicates an expected call of Move.
func (mr *MockCompactableMockRecorder) Move(ref any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Move", reflect.TypeOf((*MockCompactable)(nil).Move), ref)
}
