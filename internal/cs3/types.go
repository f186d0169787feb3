package cs3

// ResourceType is the gateway's resource kind enumeration.
type ResourceType int

// Resource types as reported by the gateway.
const (
	ResourceTypeInvalid ResourceType = iota
	ResourceTypeFile
	ResourceTypeContainer
	ResourceTypeSymlink
)

// ResourceRef identifies a remote resource by absolute path. It is
// derived from a path string, carries no state, and is recreated per call.
type ResourceRef struct {
	Path string
}

// Timestamp is a seconds/nanos pair as the gateway serializes times.
type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int64 `json:"nanos"`
}

// PermissionSet carries the gateway permission bits the adapter cares
// about. Additional bits in the wire payload are ignored.
type PermissionSet struct {
	CreateContainer    bool `json:"create_container"`
	Delete             bool `json:"delete"`
	InitiateFileUpload bool `json:"initiate_file_upload"`
	ListContainer      bool `json:"list_container"`
	Stat               bool `json:"stat"`
}

// OpaqueEntry is one side-channel metadata value on a resource
// descriptor. Decoder names the payload encoding ("json" or "plain").
type OpaqueEntry struct {
	Decoder string `json:"decoder"`
	Value   []byte `json:"value"`
}

// ResourceInfo is the gateway's native resource descriptor. Optional
// fields may be absent; the translation layer substitutes defaults.
type ResourceInfo struct {
	ID            string                 `json:"id"`
	Path          string                 `json:"path"`
	Type          ResourceType           `json:"type"`
	Size          uint64                 `json:"size"`
	Mtime         *Timestamp             `json:"mtime,omitempty"`
	Etag          string                 `json:"etag,omitempty"`
	MimeType      string                 `json:"mime_type,omitempty"`
	PermissionSet *PermissionSet         `json:"permission_set,omitempty"`
	Opaque        map[string]OpaqueEntry `json:"opaque,omitempty"`
}

// Name returns the final path segment of the descriptor's path.
func (r *ResourceInfo) Name() string {
	path := r.Path
	for len(path) > 0 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}

	return path
}

// Quota is the gateway quota response, passed through unmodified.
type Quota struct {
	TotalBytes uint64 `json:"total_bytes"`
	UsedBytes  uint64 `json:"used_bytes"`
}

// FileVersion is one entry of a resource's version history.
type FileVersion struct {
	Key   string `json:"key"`
	Size  uint64 `json:"size"`
	Mtime int64  `json:"mtime"`
	Etag  string `json:"etag"`
}

// GranteeType selects the kind of share recipient.
type GranteeType string

// Grantee types accepted by the share API.
const (
	GranteeTypeUser  GranteeType = "USER"
	GranteeTypeGroup GranteeType = "GROUP"
)

// Grantee identifies a share recipient within an identity provider.
type Grantee struct {
	Type     GranteeType `json:"type"`
	IDP      string      `json:"idp"`
	OpaqueID string      `json:"opaque_id"`
}

// Share is a direct grant on a resource. The record is backend-defined
// and passed through to callers unmodified.
type Share struct {
	ID          string   `json:"id"`
	ResourceID  string   `json:"resource_id"`
	Role        string   `json:"role"`
	Grantee     Grantee  `json:"grantee"`
	Owner       string   `json:"owner,omitempty"`
	Creator     string   `json:"creator,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	Ctime       int64    `json:"ctime,omitempty"`
	Mtime       int64    `json:"mtime,omitempty"`
	Extra       []string `json:"extra,omitempty"`
}

// ShareState is the state of a received share.
type ShareState string

// The two settable received-share states. The accept/reject interface
// exposes no others.
const (
	ShareStateAccepted ShareState = "SHARE_STATE_ACCEPTED"
	ShareStateRejected ShareState = "SHARE_STATE_REJECTED"
)

// ReceivedShare is a share granted to the authenticated user.
type ReceivedShare struct {
	Share Share      `json:"share"`
	State ShareState `json:"state"`
}

// PublicShare is an anonymous link grant on a resource.
type PublicShare struct {
	ID                string   `json:"id"`
	Token             string   `json:"token,omitempty"`
	ResourceID        string   `json:"resource_id"`
	Role              string   `json:"role"`
	DisplayName       string   `json:"display_name,omitempty"`
	PasswordProtected bool     `json:"password_protected,omitempty"`
	Expiration        string   `json:"expiration,omitempty"`
	Description       string   `json:"description,omitempty"`
	Internal          bool     `json:"internal,omitempty"`
	NotifyUploads     bool     `json:"notify_uploads,omitempty"`
	ExtraRecipients   []string `json:"notify_uploads_extra_recipients,omitempty"`
	Ctime             int64    `json:"ctime,omitempty"`
}

// User is an identity-provider user record.
type User struct {
	IDP         string `json:"idp"`
	OpaqueID    string `json:"opaque_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Mail        string `json:"mail,omitempty"`
	Type        string `json:"type,omitempty"`
}

// Group is an identity-provider group record.
type Group struct {
	IDP         string `json:"idp"`
	OpaqueID    string `json:"opaque_id"`
	GroupName   string `json:"group_name"`
	DisplayName string `json:"display_name,omitempty"`
	Type        string `json:"type,omitempty"`
}

// ShareFilter narrows share listing calls. Zero-value fields are
// omitted from the request; an empty filter set lists everything.
type ShareFilter struct {
	ResourceID      string `json:"resource_id,omitempty"`
	CreatorIDP      string `json:"creator_idp,omitempty"`
	CreatorOpaqueID string `json:"creator_opaque_id,omitempty"`
}

// FilterByResource builds a filter matching shares on one resource.
func FilterByResource(ref ResourceRef) ShareFilter {
	return ShareFilter{ResourceID: ref.Path}
}

// FilterByCreator builds a filter matching shares created by one user.
func FilterByCreator(idp, opaqueID string) ShareFilter {
	return ShareFilter{CreatorIDP: idp, CreatorOpaqueID: opaqueID}
}
