/*
 * Copyright 2025 The Cascade Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package types defines the core value types and contracts shared by every
// other package in the runtime: the Item that flows through the graph, the
// graph's own definitions (component, connection, schedule), the error
// taxonomy, and the Config/Logger/Registry contracts that wire everything
// together.
//
// 包 types 定义了运行时其余所有包共享的核心值类型和契约：流经图的 Item、
// 图本身的定义（组件、连接、调度）、错误分类，以及将一切连接起来的
// Config/Logger/Registry 契约。
package types

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// ContentKind tags the variant held by a ContentRef.
type ContentKind int

const (
	// ContentInline holds the payload directly as bytes.
	ContentInline ContentKind = iota
	// ContentDisk references an opaque on-disk handle (path or descriptor)
	// resolved by whatever component wrote it; the core never opens it.
	ContentDisk
	// ContentURL references remote content by URL.
	ContentURL
	// ContentRepo references an entry in an external content-addressed
	// repository by key.
	ContentRepo
)

// ContentRef is a closed tagged union over an item's possible content
// representations. Only one of the fields is meaningful, selected by Kind;
// the core never interprets the payload itself, it only carries it.
//
// ContentRef 是 Item 可能内容表示形式的封闭标签联合体。只有 Kind 所选择的
// 字段有意义；核心从不解释负载本身，只负责搬运它。
type ContentRef struct {
	Kind ContentKind

	// Inline holds the bytes when Kind == ContentInline.
	Inline []byte
	// Handle holds the disk handle, URL, or repository key for the other
	// three kinds.
	Handle string
}

// InlineContent builds a ContentRef carrying bytes directly.
func InlineContent(b []byte) ContentRef {
	return ContentRef{Kind: ContentInline, Inline: b}
}

// DiskContent builds a ContentRef referencing an opaque disk handle.
func DiskContent(handle string) ContentRef {
	return ContentRef{Kind: ContentDisk, Handle: handle}
}

// URLContent builds a ContentRef referencing a URL.
func URLContent(url string) ContentRef {
	return ContentRef{Kind: ContentURL, Handle: url}
}

// RepoContent builds a ContentRef referencing a repository key.
func RepoContent(key string) ContentRef {
	return ContentRef{Kind: ContentRepo, Handle: key}
}

// Item is the immutable unit of work exchanged between nodes. It carries an
// opaque identity, a creation timestamp, string properties, and optionally
// named content blobs. Items have no parent pointers in the core; lineage
// (if a component wants one) is just another property.
//
// Item 是节点间交换的不可变工作单元。它携带一个不透明的标识、创建时间戳、
// 字符串属性，以及可选的命名内容块。Item 在核心中没有父指针；如果组件
// 需要血缘关系，那也只是另一个属性而已。
type Item struct {
	id         string
	createdAt  int64 // nanoseconds since epoch
	properties map[string]string
	content    map[string]ContentRef
}

// NewItem constructs an Item with a fresh id, the current timestamp, and a
// copy of the supplied properties. A nil properties map is treated as
// empty. If defaultContentName is non-empty, defaultContent is stored under
// that name.
func NewItem(properties map[string]string, defaultContentName string, defaultContent *ContentRef) Item {
	id, err := uuid.NewV4()
	idStr := id.String()
	if err != nil {
		// uuid.NewV4 only fails if the runtime's random source is broken;
		// fall back to a timestamp-based id rather than panic.
		idStr = time.Now().UTC().Format(time.RFC3339Nano)
	}
	props := make(map[string]string, len(properties))
	for k, v := range properties {
		props[k] = v
	}
	content := make(map[string]ContentRef)
	if defaultContentName != "" && defaultContent != nil {
		content[defaultContentName] = *defaultContent
	}
	return Item{
		id:         idStr,
		createdAt:  time.Now().UnixNano(),
		properties: props,
		content:    content,
	}
}

// ID returns the item's opaque unique identity.
func (it Item) ID() string { return it.id }

// CreatedAt returns the item's creation timestamp in nanoseconds since the
// Unix epoch.
func (it Item) CreatedAt() int64 { return it.createdAt }

// Property looks up a single property by key.
func (it Item) Property(key string) (string, bool) {
	v, ok := it.properties[key]
	return v, ok
}

// Properties returns a copy of the item's property map. Callers must not
// rely on mutating the returned map to affect the item — it is a copy.
func (it Item) Properties() map[string]string {
	out := make(map[string]string, len(it.properties))
	for k, v := range it.properties {
		out[k] = v
	}
	return out
}

// Content looks up a named content reference.
func (it Item) Content(name string) (ContentRef, bool) {
	c, ok := it.content[name]
	return c, ok
}

// WithProperty returns a new Item with the given property set, leaving the
// receiver untouched. The id and content are shared with the original.
func (it Item) WithProperty(key, value string) Item {
	props := it.Properties()
	props[key] = value
	return Item{
		id:         it.id,
		createdAt:  it.createdAt,
		properties: props,
		content:    it.content,
	}
}

// WithContent returns a new Item with the given named content set.
func (it Item) WithContent(name string, ref ContentRef) Item {
	content := make(map[string]ContentRef, len(it.content)+1)
	for k, v := range it.content {
		content[k] = v
	}
	content[name] = ref
	return Item{
		id:         it.id,
		createdAt:  it.createdAt,
		properties: it.properties,
		content:    content,
	}
}

// Clone produces a new logical copy of the item with the same id. Callers
// who need a fresh identity should follow Clone with WithNewID.
//
// Clone 生成一个具有相同 id 的新逻辑副本。需要全新身份的调用者应在
// Clone 之后调用 WithNewID。
func (it Item) Clone() Item {
	return Item{
		id:         it.id,
		createdAt:  it.createdAt,
		properties: it.Properties(),
		content:    cloneContent(it.content),
	}
}

// WithNewID returns a copy of the item stamped with a freshly generated id,
// keeping the creation timestamp, properties, and content.
func (it Item) WithNewID() Item {
	id, err := uuid.NewV4()
	idStr := id.String()
	if err != nil {
		idStr = time.Now().UTC().Format(time.RFC3339Nano)
	}
	clone := it.Clone()
	clone.id = idStr
	return clone
}

func cloneContent(in map[string]ContentRef) map[string]ContentRef {
	out := make(map[string]ContentRef, len(in))
	for k, v := range in {
		cp := v
		if v.Inline != nil {
			cp.Inline = append([]byte(nil), v.Inline...)
		}
		out[k] = cp
	}
	return out
}
