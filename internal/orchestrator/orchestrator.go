// Package orchestrator sequences the two backend adapters into the
// create/get/update/delete/sync actions. Every multi-step action is
// fail-fast with the failing step named in the error; there is no
// rollback across backends.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"

	gskerrors "github.com/systmms/gsksync/internal/errors"
	"github.com/systmms/gsksync/internal/logging"
	"github.com/systmms/gsksync/internal/secrets"
	"github.com/systmms/gsksync/internal/secure"
)

// Direction selects which backend is the source of truth for a sync pass.
type Direction string

const (
	// ClusterToCloud syncs the cluster secret into Secret Manager.
	ClusterToCloud Direction = "k2g"
	// CloudToCluster syncs the Secret Manager secret into the cluster.
	CloudToCluster Direction = "g2k"
)

// ParseDirection validates a --direction flag value.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case ClusterToCloud, CloudToCluster:
		return Direction(s), nil
	default:
		return "", gskerrors.ConfigError{
			Field:      "direction",
			Value:      s,
			Message:    "must be one of k2g, g2k",
			Suggestion: "Use --direction k2g (cluster → cloud) or --direction g2k (cloud → cluster)",
		}
	}
}

// CloudBackend is the Secret Manager side of a sync.
type CloudBackend interface {
	Create(ctx context.Context, secretID string) error
	AddVersion(ctx context.Context, secretID string, doc secrets.Document) error
	Delete(ctx context.Context, secretID string) error
	AccessVersion(ctx context.Context, secretID, version string) (secrets.Document, error)
}

// ClusterBackend is the Kubernetes side of a sync.
type ClusterBackend interface {
	Create(ctx context.Context, secretID string, doc secrets.Document) error
	Update(ctx context.Context, secretID string, doc secrets.Document) error
	Delete(ctx context.Context, secretID string) error
	Access(ctx context.Context, secretID string) (secrets.Document, error)
}

// ConfirmFunc asks the operator to approve the second half of an update
// after seeing the pre-sync state. A nil ConfirmFunc means always proceed.
type ConfirmFunc func(prompt string) (bool, error)

// ErrAborted is returned when the operator declines a confirmation.
var ErrAborted = errors.New("aborted by operator")

const versionLatest = "latest"

// Orchestrator holds both adapters and the ambient plumbing.
type Orchestrator struct {
	Cloud     CloudBackend
	Cluster   ClusterBackend
	Logger    *logging.Logger
	Artifacts *secrets.ArtifactWriter
	Out       io.Writer
	Confirm   ConfirmFunc
}

// Create provisions the secret in both backends from the given document:
// cloud container, first cloud version, then the cluster secret. If a
// later step fails the earlier backend keeps its state; the error names
// the step so the operator knows exactly what was mutated.
func (o *Orchestrator) Create(ctx context.Context, secretID string, doc secrets.Document) error {
	if err := o.Cloud.Create(ctx, secretID); err != nil {
		return step("cloud create", err)
	}
	if err := o.Cloud.AddVersion(ctx, secretID, doc); err != nil {
		return step("cloud add-version (cloud container was created)", err)
	}
	if err := o.Cluster.Create(ctx, secretID, doc); err != nil {
		return step("cluster create (cloud secret was created)", err)
	}
	return nil
}

// Get reads the secret from both backends and prints the decoded content.
// With verify set it additionally compares the two documents and fails
// when they have drifted apart.
func (o *Orchestrator) Get(ctx context.Context, secretID string, verify bool) error {
	cloudDoc, err := o.Cloud.AccessVersion(ctx, secretID, versionLatest)
	if err != nil {
		return step("cloud access", err)
	}
	o.print("Gcloud secret:", cloudDoc)
	o.Artifacts.WriteDocument("gcloud", cloudDoc)

	clusterDoc, err := o.Cluster.Access(ctx, secretID)
	if err != nil {
		return step("cluster access", err)
	}
	o.print("K8s secret:", clusterDoc)
	o.Artifacts.WriteDocument("k8s", clusterDoc)

	if verify {
		if !cloudDoc.Equal(clusterDoc) {
			return gskerrors.UserError{
				Message:    fmt.Sprintf("Secret '%s' has drifted between backends", secretID),
				Suggestion: "Run 'gsksync update' with the direction of the backend you trust",
			}
		}
		o.Logger.Info("backends agree for secret %s", secretID)
	}
	return nil
}

// Delete removes the secret from both backends. Unlike the other
// actions it always attempts both, since stopping halfway would leave
// strictly more state behind.
func (o *Orchestrator) Delete(ctx context.Context, secretID string) error {
	var errs []error
	if err := o.Cloud.Delete(ctx, secretID); err != nil {
		errs = append(errs, step("cloud delete", err))
	}
	if err := o.Cluster.Delete(ctx, secretID); err != nil {
		errs = append(errs, step("cluster delete", err))
	}
	return errors.Join(errs...)
}

// Update writes the document to the source backend, reads it back, and
// synchronizes the read-back content into the destination backend. The
// read-back document crosses between the two halves through a protected
// in-memory buffer; no hand-off file is involved.
func (o *Orchestrator) Update(ctx context.Context, secretID string, doc secrets.Document, direction Direction) error {
	switch direction {
	case ClusterToCloud:
		return o.updateClusterToCloud(ctx, secretID, doc)
	case CloudToCluster:
		return o.updateCloudToCluster(ctx, secretID, doc)
	default:
		_, err := ParseDirection(string(direction))
		return err
	}
}

func (o *Orchestrator) updateClusterToCloud(ctx context.Context, secretID string, doc secrets.Document) error {
	if err := o.Cluster.Update(ctx, secretID, doc); err != nil {
		return step("cluster update", err)
	}
	readBack, err := o.Cluster.Access(ctx, secretID)
	if err != nil {
		return step("cluster read-back (cluster secret was updated)", err)
	}
	o.print("K8s secret:", readBack)
	o.Artifacts.WriteDocument("k8s", readBack)

	if ok, err := o.confirmSync("Secret Manager", readBack); err != nil || !ok {
		if err != nil {
			return err
		}
		return ErrAborted
	}

	synced, err := o.handOff(readBack)
	if err != nil {
		return err
	}
	if err := o.Cloud.AddVersion(ctx, secretID, synced); err != nil {
		return step("cloud add-version (cluster secret was updated)", err)
	}

	final, err := o.Cloud.AccessVersion(ctx, secretID, versionLatest)
	if err != nil {
		return step("cloud read-back", err)
	}
	o.print("Gcloud secret:", final)
	o.Artifacts.WriteDocument("gcloud", final)
	return nil
}

func (o *Orchestrator) updateCloudToCluster(ctx context.Context, secretID string, doc secrets.Document) error {
	if err := o.Cloud.AddVersion(ctx, secretID, doc); err != nil {
		return step("cloud add-version", err)
	}
	readBack, err := o.Cloud.AccessVersion(ctx, secretID, versionLatest)
	if err != nil {
		return step("cloud read-back (cloud version was added)", err)
	}
	o.print("Gcloud secret:", readBack)
	o.Artifacts.WriteDocument("gcloud", readBack)

	if ok, err := o.confirmSync("the cluster", readBack); err != nil || !ok {
		if err != nil {
			return err
		}
		return ErrAborted
	}

	synced, err := o.handOff(readBack)
	if err != nil {
		return err
	}
	if err := o.Cluster.Update(ctx, secretID, synced); err != nil {
		return step("cluster update (cloud version was added)", err)
	}

	final, err := o.Cluster.Access(ctx, secretID)
	if err != nil {
		return step("cluster read-back", err)
	}
	o.print("K8s secret:", final)
	o.Artifacts.WriteDocument("k8s", final)
	return nil
}

// handOff routes a document between the read and write halves of an
// update through a memguard-protected buffer, so the serialized secret
// is encrypted at rest in memory while the operator is looking at the
// confirmation prompt.
func (o *Orchestrator) handOff(doc secrets.Document) (secrets.Document, error) {
	payload, err := secrets.EncodeYAML(doc)
	if err != nil {
		return nil, err
	}
	buf := secure.NewBuffer(payload)
	defer buf.Destroy()

	locked, err := buf.Open()
	if err != nil {
		return nil, fmt.Errorf("opening hand-off buffer: %w", err)
	}
	defer locked.Destroy()

	return secrets.ParseYAML(locked.Bytes())
}

// confirmSync shows the pre-sync document and asks the operator to
// approve writing it to the destination backend.
func (o *Orchestrator) confirmSync(destination string, doc secrets.Document) (bool, error) {
	if o.Confirm == nil {
		return true, nil
	}
	ok, err := o.Confirm(fmt.Sprintf("Sync these %d entries to %s?", len(doc), destination))
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	if !ok {
		o.Logger.Warn("sync aborted; %s was left unchanged", destination)
	}
	return ok, nil
}

// print writes a labeled document to the operator-facing output stream.
func (o *Orchestrator) print(label string, doc secrets.Document) {
	if o.Out == nil {
		return
	}
	data, err := secrets.EncodeYAML(doc)
	if err != nil {
		o.Logger.Warn("cannot render document: %v", err)
		return
	}
	fmt.Fprintln(o.Out, label)
	o.Out.Write(data)
}

// step tags an error with the pipeline step that produced it.
func step(name string, err error) error {
	return fmt.Errorf("%s: %w", name, err)
}
