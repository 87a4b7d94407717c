package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/secaudit/internal/model"
)

func TestAuditResultCounts(testInstance *testing.T) {
	testCases := []struct {
		name                string
		exceptions          []model.ExceptionRecord
		expectedTotalCount  int
		expectedActiveCount int
		expectedStaleCount  int
	}{
		{
			name:                "empty_result",
			exceptions:          nil,
			expectedTotalCount:  0,
			expectedActiveCount: 0,
			expectedStaleCount:  0,
		},
		{
			name: "mixed_active_and_stale",
			exceptions: []model.ExceptionRecord{
				{Path: "/opt/app", Kind: model.ExceptionKindFolder, Exists: true},
				{Path: "/opt/removed", Kind: model.ExceptionKindFolder, Exists: false},
				{Path: "python", Kind: model.ExceptionKindProcess, Exists: true},
			},
			expectedTotalCount:  3,
			expectedActiveCount: 2,
			expectedStaleCount:  1,
		},
		{
			name: "all_stale",
			exceptions: []model.ExceptionRecord{
				{Path: "/tmp/gone", Kind: model.ExceptionKindPath, Exists: false},
				{Path: "/tmp/also-gone", Kind: model.ExceptionKindPath, Exists: false},
			},
			expectedTotalCount:  2,
			expectedActiveCount: 0,
			expectedStaleCount:  2,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			auditResult := model.NewAuditResult("defender", time.Now())
			auditResult.Exceptions = testCase.exceptions

			require.Equal(subTest, testCase.expectedTotalCount, auditResult.TotalCount())
			require.Equal(subTest, testCase.expectedActiveCount, auditResult.ActiveCount())
			require.Equal(subTest, testCase.expectedStaleCount, auditResult.StaleCount())
			require.Equal(subTest, auditResult.TotalCount(), auditResult.ActiveCount()+auditResult.StaleCount())
		})
	}
}

func TestAuditResultDocumentRoundTrip(testInstance *testing.T) {
	auditTime := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	auditResult := model.NewAuditResult("windows_firewall", auditTime)
	auditResult.Exceptions = []model.ExceptionRecord{
		{
			Path:      "Uvicorn Inbound 8000",
			Kind:      model.ExceptionKindFirewallRule,
			Product:   "windows_firewall",
			Exists:    true,
			Direction: model.TrafficDirectionInbound,
		},
	}
	auditResult.Warnings = []string{"admin privileges may be needed for full details"}
	auditResult.RequiresElevation = true

	document := auditResult.Document()
	require.Equal(testInstance, auditResult.TotalCount(), document.TotalExceptions)
	require.Equal(testInstance, auditResult.ActiveCount(), document.ActiveExceptions)
	require.Equal(testInstance, auditResult.StaleCount(), document.StaleExceptions)

	restored := document.Result()
	require.Equal(testInstance, auditResult.Product, restored.Product)
	require.Equal(testInstance, auditResult.Exceptions, restored.Exceptions)
	require.Equal(testInstance, auditResult.RequiresElevation, restored.RequiresElevation)
	require.Equal(testInstance, auditResult.AuditTime, restored.AuditTime)
}

func TestAuditResultDocumentNormalizesNilCollections(testInstance *testing.T) {
	document := model.NewAuditResult("bitdefender", time.Now()).Document()

	require.NotNil(testInstance, document.Exceptions)
	require.NotNil(testInstance, document.Errors)
	require.NotNil(testInstance, document.Warnings)
}

func TestExceptionRecordSupportsExistenceCheck(testInstance *testing.T) {
	testCases := []struct {
		name            string
		kind            model.ExceptionKind
		expectedSupport bool
	}{
		{name: "path_records_checkable", kind: model.ExceptionKindPath, expectedSupport: true},
		{name: "folder_records_checkable", kind: model.ExceptionKindFolder, expectedSupport: true},
		{name: "process_records_checkable", kind: model.ExceptionKindProcess, expectedSupport: true},
		{name: "extension_records_not_checkable", kind: model.ExceptionKindExtension, expectedSupport: false},
		{name: "firewall_records_not_checkable", kind: model.ExceptionKindFirewallRule, expectedSupport: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			record := model.ExceptionRecord{Kind: testCase.kind}
			require.Equal(subTest, testCase.expectedSupport, record.SupportsExistenceCheck())
		})
	}
}
