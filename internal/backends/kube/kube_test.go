package kube_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/gsksync/internal/backends/kube"
	gskerrors "github.com/systmms/gsksync/internal/errors"
	"github.com/systmms/gsksync/internal/logging"
	"github.com/systmms/gsksync/internal/secrets"
	"github.com/systmms/gsksync/tests/testutil"
)

func newClient(t *testing.T, namespace, kubeContext string) (*kube.Client, *testutil.MockCommandExecutor) {
	t.Helper()
	executor := testutil.NewMockCommandExecutor()
	logger := logging.New(false, true)
	artifacts := secrets.NewArtifactWriter("", logger)
	return kube.NewWithExecutor(namespace, kubeContext, logger, artifacts, executor), executor
}

func TestCreateFlattensSortedLiterals(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "", "")
	doc := secrets.Document{"password": "hunter2", "username": "admin"}
	require.NoError(t, client.Create(context.Background(), "db-creds", doc))

	calls := executor.GetCalls("kubectl")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{
		"create", "secret", "generic", "db-creds",
		"--from-literal=password=hunter2",
		"--from-literal=username=admin",
	}, calls[0].Args)
}

func TestCreateLiteralValuesStayOpaque(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "", "")
	doc := secrets.Document{"cmd": `$(rm -rf /) "quoted"; echo`}
	require.NoError(t, client.Create(context.Background(), "tricky", doc))

	calls := executor.GetCalls("kubectl")
	require.Len(t, calls, 1)
	// The hostile value is one argv element, exactly as provided.
	assert.Contains(t, calls[0].Args, `--from-literal=cmd=$(rm -rf /) "quoted"; echo`)
}

func TestCreateDebugLogRedactsValues(t *testing.T) {
	t.Parallel()

	var log bytes.Buffer
	executor := testutil.NewMockCommandExecutor()
	logger := logging.NewWithWriter(true, true, &log)
	client := kube.NewWithExecutor("", "", logger, secrets.NewArtifactWriter("", logger), executor)

	doc := secrets.Document{"password": "hunter2-rotated"}
	require.NoError(t, client.Create(context.Background(), "db-creds", doc))

	assert.Contains(t, log.String(), "[REDACTED]")
	assert.NotContains(t, log.String(), "hunter2-rotated")
}

func TestCreateScopedByNamespaceAndContext(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "staging", "gke-test")
	require.NoError(t, client.Create(context.Background(), "db-creds", secrets.Document{"k": "v"}))

	calls := executor.GetCalls("kubectl")
	require.Len(t, calls, 1)
	joined := strings.Join(calls[0].Args, " ")
	assert.Contains(t, joined, "--namespace staging")
	assert.Contains(t, joined, "--context gke-test")
}

func TestUpdateComposesDryRunAndApply(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "", "")
	manifest := "apiVersion: v1\nkind: Secret\nmetadata:\n  name: db-creds\n"
	executor.AddOutputResponse("kubectl create secret generic db-creds", manifest)

	doc := secrets.Document{"username": "admin"}
	require.NoError(t, client.Update(context.Background(), "db-creds", doc))

	calls := executor.GetCalls("kubectl")
	require.Len(t, calls, 2)

	genJoined := strings.Join(calls[0].Args, " ")
	assert.Contains(t, genJoined, "--dry-run=client -o yaml")

	assert.Equal(t, []string{"apply", "-f", "-"}, calls[1].Args)
	assert.Equal(t, manifest, string(calls[1].Input))
}

func TestUpdateIdempotent(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "", "")
	doc := secrets.Document{"username": "admin"}

	require.NoError(t, client.Update(context.Background(), "db-creds", doc))
	require.NoError(t, client.Update(context.Background(), "db-creds", doc))

	calls := executor.GetCalls("kubectl")
	require.Len(t, calls, 4)
	// Both passes issue byte-identical generate commands.
	assert.Equal(t, calls[0].Args, calls[2].Args)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "", "")
	require.NoError(t, client.Delete(context.Background(), "db-creds"))

	calls := executor.GetCalls("kubectl")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"delete", "secret", "db-creds"}, calls[0].Args)
}

func TestAccessDecodesData(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "", "")
	executor.AddOutputResponse(
		"kubectl get secret db-creds",
		testutil.KubeSecretYAML("db-creds", map[string]string{"username": "admin", "password": "hunter2"}),
	)

	doc, err := client.Access(context.Background(), "db-creds")
	require.NoError(t, err)
	assert.Equal(t, secrets.Document{"username": "admin", "password": "hunter2"}, doc)
}

func TestAccessNotFound(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "", "")
	executor.AddErrorResponse("kubectl get secret", `Error from server (NotFound): secrets "db-creds" not found`, 1)

	_, err := client.Access(context.Background(), "db-creds")
	require.Error(t, err)

	var userErr gskerrors.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.Message, "not found in the cluster")
	assert.Contains(t, userErr.Suggestion, "kubectl get secrets")
}

func TestAccessMalformedBase64(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "", "")
	executor.AddOutputResponse(
		"kubectl get secret",
		"apiVersion: v1\nkind: Secret\ndata:\n  key: '!!!not-base64'\n",
	)

	_, err := client.Access(context.Background(), "db-creds")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Malformed base64")
}

func TestAccessConnectionFailure(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "", "")
	executor.AddErrorResponse("kubectl", "Unable to connect to the server: dial tcp: connection refused", 1)

	_, err := client.Access(context.Background(), "db-creds")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot reach the cluster")
}

func TestUpdateForbidden(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t, "", "")
	executor.AddErrorResponse("kubectl create secret generic", `Error from server (Forbidden): secrets is forbidden`, 1)

	err := client.Update(context.Background(), "db-creds", secrets.Document{"k": "v"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RBAC")
}
