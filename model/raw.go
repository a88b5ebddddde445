package model

import (
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v5"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"google.golang.org/api/compute/v1"
)

// Subtype labels of the canonical model
const (
	SubtypeEC2Instance     = "ec2-instance"
	SubtypeEBSVolume       = "ebs-volume"
	SubtypeElasticIP       = "elastic-ip"
	SubtypeLoadBalancer    = "load-balancer"
	SubtypeRDSInstance     = "rds-instance"
	SubtypeAzureVM         = "azure-vm"
	SubtypeManagedDisk     = "managed-disk"
	SubtypeAzurePublicIP   = "azure-public-ip"
	SubtypeGCEInstance     = "gce-instance"
	SubtypePersistentDisk  = "persistent-disk"
	SubtypeExternalAddress = "external-address"
)

// RawRecord is a provider-shaped listing returned by a discovery adapter.
// Each implementation wraps exactly one vendor SDK struct.
type RawRecord interface {
	Provider() Provider
	Subtype() string
}

// AWSInstance wraps an EC2 instance
type AWSInstance struct {
	Instance ec2types.Instance
}

// AWSVolume wraps an EBS volume
type AWSVolume struct {
	Volume ec2types.Volume
}

// AWSAddress wraps an Elastic IP allocation
type AWSAddress struct {
	Address ec2types.Address
}

// AWSLoadBalancer wraps an ALB/NLB/GWLB. Tags come from a separate DescribeTags call.
type AWSLoadBalancer struct {
	LoadBalancer elbtypes.LoadBalancer
	Tags         []elbtypes.Tag
}

// AWSDBInstance wraps an RDS instance
type AWSDBInstance struct {
	DBInstance rdstypes.DBInstance
}

// AzureVM wraps a virtual machine listed with its instance view
type AzureVM struct {
	VM *armcompute.VirtualMachine
}

// AzureDisk wraps a managed disk
type AzureDisk struct {
	Disk *armcompute.Disk
}

// AzurePublicIP wraps a public IP address
type AzurePublicIP struct {
	Address *armnetwork.PublicIPAddress
}

// GCPInstance wraps a Compute Engine instance
type GCPInstance struct {
	Instance *compute.Instance
}

// GCPDisk wraps a persistent disk
type GCPDisk struct {
	Disk *compute.Disk
}

// GCPAddress wraps a reserved external address
type GCPAddress struct {
	Address *compute.Address
}

func (AWSInstance) Provider() Provider     { return ProviderAWS }
func (AWSVolume) Provider() Provider       { return ProviderAWS }
func (AWSAddress) Provider() Provider      { return ProviderAWS }
func (AWSLoadBalancer) Provider() Provider { return ProviderAWS }
func (AWSDBInstance) Provider() Provider   { return ProviderAWS }
func (AzureVM) Provider() Provider         { return ProviderAzure }
func (AzureDisk) Provider() Provider       { return ProviderAzure }
func (AzurePublicIP) Provider() Provider   { return ProviderAzure }
func (GCPInstance) Provider() Provider     { return ProviderGCP }
func (GCPDisk) Provider() Provider         { return ProviderGCP }
func (GCPAddress) Provider() Provider      { return ProviderGCP }

func (AWSInstance) Subtype() string     { return SubtypeEC2Instance }
func (AWSVolume) Subtype() string       { return SubtypeEBSVolume }
func (AWSAddress) Subtype() string      { return SubtypeElasticIP }
func (AWSLoadBalancer) Subtype() string { return SubtypeLoadBalancer }
func (AWSDBInstance) Subtype() string   { return SubtypeRDSInstance }
func (AzureVM) Subtype() string         { return SubtypeAzureVM }
func (AzureDisk) Subtype() string       { return SubtypeManagedDisk }
func (AzurePublicIP) Subtype() string   { return SubtypeAzurePublicIP }
func (GCPInstance) Subtype() string     { return SubtypeGCEInstance }
func (GCPDisk) Subtype() string         { return SubtypePersistentDisk }
func (GCPAddress) Subtype() string      { return SubtypeExternalAddress }

// CategoryError records a failed discovery category
type CategoryError struct {
	Category Category `json:"category"`
	Err      error    `json:"-"`
}

func (e CategoryError) Error() string {
	return string(e.Category) + ": " + e.Err.Error()
}

func (e CategoryError) Unwrap() error {
	return e.Err
}

// DiscoveryResult is the union of every category that succeeded, with the
// failures reported alongside.
type DiscoveryResult struct {
	Records []RawRecord
	Errors  []CategoryError
}

// Partial reports whether at least one category failed
func (r *DiscoveryResult) Partial() bool {
	return len(r.Errors) > 0
}
