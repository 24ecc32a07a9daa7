package vault

import (
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/glacier"
	"github.com/aws/aws-sdk-go/service/glacier/glacieriface"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Store is the remote side of a backup: somewhere archives can be
// uploaded under a named vault, checksummed with a tree hash.
type Store interface {
	// Ensure creates the named vault if it doesn't already exist.
	Ensure(name string) error
	// Upload stores one archive in the named vault and returns the
	// service-assigned archive ID.  checksum is the lowercase hex
	// tree hash of body; the service rejects the upload if it does
	// not match what it computes on its side.
	Upload(name, description string, body io.ReadSeeker, checksum string) (archiveID string, err error)
}

// Glacier is a Store backed by AWS Glacier.  Uploads are single
// payload; archives larger than the service's single-upload limit
// need an operator decision, not silent multipart.
type Glacier struct {
	svc glacieriface.GlacierAPI
}

// account "-" means the account owning the credentials
const account = "-"

// NewGlacier returns a Glacier store for the given region using the
// ambient AWS credential chain.
func NewGlacier(region string) (g *Glacier, err error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, errors.Wrap(err, "creating AWS session")
	}
	return &Glacier{svc: glacier.New(sess)}, nil
}

func (g *Glacier) Ensure(name string) (err error) {
	_, err = g.svc.DescribeVault(&glacier.DescribeVaultInput{
		AccountId: aws.String(account),
		VaultName: aws.String(name),
	})
	if err == nil {
		log.Debugf("vault %s exists", name)
		return nil
	}
	aerr, ok := err.(awserr.Error)
	if !ok || aerr.Code() != glacier.ErrCodeResourceNotFoundException {
		return errors.Wrapf(err, "describing vault %s", name)
	}

	log.Infof("creating vault %s", name)
	_, err = g.svc.CreateVault(&glacier.CreateVaultInput{
		AccountId: aws.String(account),
		VaultName: aws.String(name),
	})
	if err != nil {
		return errors.Wrapf(err, "creating vault %s", name)
	}
	return nil
}

func (g *Glacier) Upload(name, description string, body io.ReadSeeker, checksum string) (archiveID string, err error) {
	out, err := g.svc.UploadArchive(&glacier.UploadArchiveInput{
		AccountId:          aws.String(account),
		VaultName:          aws.String(name),
		ArchiveDescription: aws.String(description),
		Checksum:           aws.String(checksum),
		Body:               body,
	})
	if err != nil {
		return "", errors.Wrapf(err, "uploading to vault %s", name)
	}
	archiveID = aws.StringValue(out.ArchiveId)
	log.Infof("uploaded archive %s to vault %s", archiveID, name)
	return
}
