// Code generated by MockGen style. Hand-written to mirror the teacher's
// generated mocks without pulling mockgen into the build.
//
// Source: github.com/Azure/cosmos-query-engine-go/cmd/cqe (interface: Fetcher)

package main

import (
	"context"
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"

	"github.com/Azure/cosmos-query-engine-go/pkg/pipeline"
)

// MockFetcher is a mock of Fetcher interface.
type MockFetcher struct {
	ctrl     *gomock.Controller
	recorder *MockFetcherMockRecorder
}

// MockFetcherMockRecorder is the mock recorder for MockFetcher.
type MockFetcherMockRecorder struct {
	mock *MockFetcher
}

// NewMockFetcher creates a new mock instance.
func NewMockFetcher(ctrl *gomock.Controller) *MockFetcher {
	mock := &MockFetcher{ctrl: ctrl}
	mock.recorder = &MockFetcherMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockFetcher) EXPECT() *MockFetcherMockRecorder {
	return m.recorder
}

// FetchAll mocks base method.
func (m *MockFetcher) FetchAll(arg0 context.Context, arg1 []pipeline.DataRequest) ([]pipeline.QueryResponse, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FetchAll", arg0, arg1)
	ret0, _ := ret[0].([]pipeline.QueryResponse)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FetchAll indicates an expected call of FetchAll.
func (mr *MockFetcherMockRecorder) FetchAll(arg0, arg1 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FetchAll", reflect.TypeOf((*MockFetcher)(nil).FetchAll), arg0, arg1)
}
