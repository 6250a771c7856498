package azure

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

// BlobSource lists and downloads blobs from one storage container.
// It is the seam between the download driver and the Azure SDK, so tests
// can substitute a stub.
type BlobSource interface {
	// ContainerName returns the name of the backing container.
	ContainerName() string

	// List returns all blob names in the container, in service order.
	List(ctx context.Context) ([]string, error)

	// Download streams the full content of one blob into w.
	Download(ctx context.Context, blobName string, w io.Writer) error
}

// ContainerClient is the Azure-backed BlobSource. The SAS URI carries the
// authorization; no separate credential is used.
type ContainerClient struct {
	name   string
	client *container.Client
}

// NewContainerClient builds a BlobSource from a container SAS URI.
func NewContainerClient(sasURI string) (*ContainerClient, error) {
	name, err := ContainerNameFromURI(sasURI)
	if err != nil {
		return nil, err
	}

	client, err := container.NewClientWithNoCredential(sasURI, nil)
	if err != nil {
		return nil, fmt.Errorf("container client for %s: %w", name, err)
	}

	return &ContainerClient{name: name, client: client}, nil
}

// ContainerName returns the container name extracted from the SAS URI.
func (c *ContainerClient) ContainerName() string {
	return c.name
}

// List returns all blob names via the flat-list pager.
func (c *ContainerClient) List(ctx context.Context) ([]string, error) {
	var names []string

	pager := c.client.NewListBlobsFlatPager(&container.ListBlobsFlatOptions{})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list blobs in %s: %w", c.name, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}

	return names, nil
}

// Download streams one blob's content into w.
func (c *ContainerClient) Download(ctx context.Context, blobName string, w io.Writer) error {
	resp, err := c.client.NewBlobClient(blobName).DownloadStream(ctx, nil)
	if err != nil {
		return fmt.Errorf("download %s/%s: %w", c.name, blobName, err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("read stream %s/%s: %w", c.name, blobName, err)
	}
	return nil
}
