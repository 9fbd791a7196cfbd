package gcloud_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/gsksync/internal/backends/gcloud"
	gskerrors "github.com/systmms/gsksync/internal/errors"
	"github.com/systmms/gsksync/internal/logging"
	"github.com/systmms/gsksync/internal/secrets"
	"github.com/systmms/gsksync/tests/testutil"
)

func newClient(t *testing.T, project string) (*gcloud.Client, *testutil.MockCommandExecutor) {
	t.Helper()
	executor := testutil.NewMockCommandExecutor()
	logger := logging.New(false, true)
	artifacts := secrets.NewArtifactWriter("", logger)
	return gcloud.NewWithExecutor(project, logger, artifacts, executor), executor
}

func TestCreate(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "")
	require.NoError(t, client.Create(context.Background(), "db-creds"))

	calls := executor.GetCalls("gcloud")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"secrets", "create", "db-creds", "--replication-policy=automatic", "--quiet"}, calls[0].Args)
}

func TestCreateWithProject(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "my-project")
	require.NoError(t, client.Create(context.Background(), "db-creds"))

	calls := executor.GetCalls("gcloud")
	require.Len(t, calls, 1)
	assert.Contains(t, strings.Join(calls[0].Args, " "), "--project my-project")
}

func TestCreateAlreadyExists(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "")
	executor.AddErrorResponse("gcloud secrets create", "ERROR: (gcloud.secrets.create) ALREADY_EXISTS", 1)

	err := client.Create(context.Background(), "db-creds")
	require.Error(t, err)

	var userErr gskerrors.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.Message, "already exists")
	assert.Contains(t, userErr.Suggestion, "gsksync update")
}

func TestAddVersionWritesTempPayload(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "")
	doc := secrets.Document{"username": "admin", "password": "hunter2"}
	require.NoError(t, client.AddVersion(context.Background(), "db-creds", doc))

	calls := executor.GetCalls("gcloud")
	require.Len(t, calls, 1)
	args := calls[0].Args
	assert.Equal(t, []string{"secrets", "versions", "add", "db-creds"}, args[:4])

	// --data-file points at a temp file that is gone once the call returns.
	var dataFile string
	for i, a := range args {
		if a == "--data-file" {
			dataFile = args[i+1]
		}
	}
	require.NotEmpty(t, dataFile)
	_, statErr := os.Stat(dataFile)
	assert.True(t, os.IsNotExist(statErr), "payload temp file should be removed")
}

func TestDelete(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "")
	require.NoError(t, client.Delete(context.Background(), "db-creds"))

	calls := executor.GetCalls("gcloud")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"secrets", "delete", "db-creds", "--quiet"}, calls[0].Args)
}

func TestDeleteNotFound(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "")
	executor.AddErrorResponse("gcloud secrets delete", "ERROR: NOT_FOUND: Secret [db-creds] not found", 1)

	err := client.Delete(context.Background(), "db-creds")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in Secret Manager")
	assert.Contains(t, err.Error(), "gcloud secrets list")
}

func TestAccessVersion(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "")
	executor.AddOutputResponse("gcloud secrets versions access latest", "username: admin\npassword: hunter2\n")

	doc, err := client.AccessVersion(context.Background(), "db-creds", gcloud.VersionLatest)
	require.NoError(t, err)
	assert.Equal(t, secrets.Document{"username": "admin", "password": "hunter2"}, doc)

	calls := executor.GetCalls("gcloud")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"secrets", "versions", "access", "latest", "--secret", "db-creds"}, calls[0].Args)
}

func TestAccessVersionUnauthenticated(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "")
	executor.AddErrorResponse("gcloud secrets versions access", "ERROR: UNAUTHENTICATED: request had invalid credentials", 1)

	_, err := client.AccessVersion(context.Background(), "db-creds", "latest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gcloud auth login")
}

func TestAccessVersionMalformedPayload(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "")
	executor.AddOutputResponse("gcloud secrets versions access", "key: [unclosed\n")

	_, err := client.AccessVersion(context.Background(), "db-creds", "latest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a key-value document")
}

func TestAccessVersionGenericFailure(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "")
	executor.AddErrorResponse("gcloud", "ERROR: something odd happened", 2)

	_, err := client.AccessVersion(context.Background(), "db-creds", "latest")
	require.Error(t, err)

	var cmdErr gskerrors.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Contains(t, cmdErr.Stderr, "something odd")
}

func TestAccessVersionWritesRawArtifact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	executor := testutil.NewMockCommandExecutor()
	logger := logging.New(false, true)
	artifacts := secrets.NewArtifactWriter(dir, logger)
	client := gcloud.NewWithExecutor("", logger, artifacts, executor)
	executor.AddOutputResponse("gcloud secrets versions access", "token: abc123\n")

	_, err := client.AccessVersion(context.Background(), "api-token", "latest")
	require.NoError(t, err)

	raw, err := os.ReadFile(dir + "/gcloud_api-token.yaml")
	require.NoError(t, err)
	assert.Equal(t, "token: abc123\n", string(raw))
}
