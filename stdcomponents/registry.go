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

package stdcomponents

import "github.com/bittoy/cascade/types"

// RegisterAll registers every reference component in this package into reg
// under its conventional type_name. logger is used by LogMessage instances.
func RegisterAll(reg types.Registry, logger types.Logger) {
	reg.Register("generate_item", NewGenerateItem)
	reg.Register("update_properties", NewUpdateProperties)
	reg.Register("log_message", NewLogMessageFactory(logger))
	reg.Register("expr_filter", NewExprFilter)
	reg.Register("expr_assign", NewExprAssign)
	reg.Register("js_filter", NewJSFilter)
	reg.Register("js_transform", NewJSTransform)
	reg.Register("mqtt_subscribe", NewMQTTSubscribe)
}
