package pact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

const (
	containerPact        = "pact"
	containerInteraction = "interaction"
	containerMessage     = "message"
)

// extractor pulls typed values out of a decoded JSON tree. Every failure names
// the container and the dotted path of the offending property.
type extractor struct {
	container string
}

func (e extractor) fail(path string, value interface{}, problem string) error {
	return &MalformedPactError{
		Reason: fmt.Sprintf("%s property '%s' [%s] %s", e.container, path, FormatValue(value), problem),
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func index(prefix string, i int) string {
	return fmt.Sprintf("%s.[%d]", prefix, i)
}

func (e extractor) object(node map[string]interface{}, key, path string) (map[string]interface{}, error) {
	value := node[key]
	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, e.fail(path, value, "is not an object")
	}
	return obj, nil
}

func (e extractor) text(node map[string]interface{}, key, path string) (string, error) {
	value := node[key]
	s, ok := value.(string)
	if !ok {
		return "", e.fail(path, value, "is not a string")
	}
	return s, nil
}

// optionalObject treats a missing or null property as an empty object.
func (e extractor) optionalObject(node map[string]interface{}, key, path string) (map[string]interface{}, error) {
	value, ok := node[key]
	if !ok || value == nil {
		return map[string]interface{}{}, nil
	}
	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, e.fail(path, value, "is not an object")
	}
	return obj, nil
}

func (e extractor) stringMap(node map[string]interface{}, key, path string) (map[string]string, error) {
	obj, err := e.optionalObject(node, key, path)
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(obj))
	for _, k := range sortedKeys(obj) {
		s, ok := obj[k].(string)
		if !ok {
			return nil, e.fail(join(path, k), obj[k], "is not a string")
		}
		result[k] = s
	}
	return result, nil
}

func (e extractor) query(node map[string]interface{}, key, path string) (map[string][]string, error) {
	obj, err := e.optionalObject(node, key, path)
	if err != nil {
		return nil, err
	}
	result := make(map[string][]string, len(obj))
	for _, k := range sortedKeys(obj) {
		entryPath := join(path, k)
		values, ok := obj[k].([]interface{})
		if !ok {
			return nil, e.fail(entryPath, obj[k], "is not an array")
		}
		strs := make([]string, 0, len(values))
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				return nil, e.fail(fmt.Sprintf("%s[%d]", entryPath, i), v, "is not a string")
			}
			strs = append(strs, s)
		}
		result[k] = strs
	}
	return result, nil
}

func (e extractor) providerStates(node map[string]interface{}, key string) ([]ProviderState, error) {
	value, ok := node[key]
	if !ok || value == nil {
		return []ProviderState{}, nil
	}
	elements, ok := value.([]interface{})
	if !ok {
		return nil, e.fail(key, value, "is not an array of objects")
	}

	states := make([]ProviderState, 0, len(elements))
	for i, element := range elements {
		path := index(key, i)
		obj, ok := element.(map[string]interface{})
		if !ok {
			return nil, e.fail(path, element, "is not an object")
		}
		name, err := e.text(obj, "name", join(path, "name"))
		if err != nil {
			return nil, err
		}
		params, err := e.parameters(obj, join(path, "params"))
		if err != nil {
			return nil, err
		}
		states = append(states, ProviderState{Name: name, Parameters: params})
	}
	return states, nil
}

func (e extractor) parameters(node map[string]interface{}, path string) (map[string]interface{}, error) {
	value, ok := node["params"]
	if !ok || value == nil {
		return map[string]interface{}{}, nil
	}
	params, ok := value.(map[string]interface{})
	if !ok {
		return nil, e.fail(path, value, "is not a map")
	}
	for _, k := range sortedKeys(params) {
		if params[k] == nil {
			return nil, &MalformedPactError{
				Reason: fmt.Sprintf("%s property '%s' is null", e.container, join(path, k)),
			}
		}
	}
	return params, nil
}

// body re-serializes JSON structures with sorted keys and the number literals
// of the document, keeps strings verbatim and maps null or absence to nil.
func (e extractor) body(node map[string]interface{}, key, path string) (*string, error) {
	value := node[key]
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return &v, nil
	case map[string]interface{}:
		return serialize(v)
	case []interface{}:
		for i, element := range v {
			if _, ok := element.(map[string]interface{}); !ok {
				return nil, e.fail(index(path, i), element, "is not a JSON object")
			}
		}
		return serialize(v)
	default:
		return nil, e.fail(path, value, "is neither a JSON, a JSON array or a string")
	}
}

func serialize(v interface{}) (*string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, "unable to serialize body")
	}
	s := string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return &s, nil
}

func (e extractor) status(node map[string]interface{}, key, path string) (*int, error) {
	value := node[key]
	n, ok := value.(json.Number)
	if !ok {
		return nil, e.fail(path, value, "is not a number")
	}
	i, err := n.Int64()
	if err != nil {
		return nil, e.fail(path, value, "is not a number")
	}
	status := int(i)
	return &status, nil
}

func (e extractor) participant(doc map[string]interface{}, key string) (string, error) {
	obj, err := e.object(doc, key, key)
	if err != nil {
		return "", err
	}
	return e.text(obj, "name", join(key, "name"))
}

func (e extractor) specification(doc map[string]interface{}) (Specification, error) {
	metadata, err := e.object(doc, "metadata", "metadata")
	if err != nil {
		return Unknown, err
	}
	spec, err := e.object(metadata, "pact-specification", "metadata.pact-specification")
	if err != nil {
		return Unknown, err
	}
	const path = "metadata.pact-specification.version"
	version, err := e.text(spec, "version", path)
	if err != nil {
		return Unknown, err
	}
	s := ParseSpecification(version)
	if s == Unknown {
		return Unknown, e.fail(path, version, "is not a known version")
	}
	return s, nil
}

func (e extractor) metadata(doc map[string]interface{}) (Metadata, error) {
	provider, err := e.participant(doc, "provider")
	if err != nil {
		return Metadata{}, err
	}
	consumer, err := e.participant(doc, "consumer")
	if err != nil {
		return Metadata{}, err
	}
	spec, err := e.specification(doc)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		Provider:      Provider{Name: provider},
		Consumer:      Consumer{Name: consumer},
		Specification: spec,
	}, nil
}

func (e extractor) request(node map[string]interface{}) (Request, error) {
	req, err := e.object(node, "request", "request")
	if err != nil {
		return Request{}, err
	}
	rawMethod, err := e.text(req, "method", "request.method")
	if err != nil {
		return Request{}, err
	}
	method, ok := ParseMethod(rawMethod)
	if !ok {
		return Request{}, e.fail("request.method", rawMethod, "is not a known HTTP method")
	}
	path, err := e.text(req, "path", "request.path")
	if err != nil {
		return Request{}, err
	}
	query, err := e.query(req, "query", "request.query")
	if err != nil {
		return Request{}, err
	}
	headers, err := e.stringMap(req, "headers", "request.headers")
	if err != nil {
		return Request{}, err
	}
	body, err := e.body(req, "body", "request.body")
	if err != nil {
		return Request{}, err
	}
	return Request{
		Method:  method,
		Path:    path,
		Query:   query,
		Headers: headers,
		Body:    body,
	}, nil
}

func (e extractor) response(node map[string]interface{}) (Response, error) {
	res, err := e.object(node, "response", "response")
	if err != nil {
		return Response{}, err
	}
	status, err := e.status(res, "status", "response.status")
	if err != nil {
		return Response{}, err
	}
	headers, err := e.stringMap(res, "headers", "response.headers")
	if err != nil {
		return Response{}, err
	}
	body, err := e.body(res, "body", "response.body")
	if err != nil {
		return Response{}, err
	}
	return Response{
		Status:  status,
		Headers: headers,
		Body:    body,
	}, nil
}

func extractInteraction(node map[string]interface{}) (Interaction, error) {
	e := extractor{container: containerInteraction}
	description, err := e.text(node, "description", "description")
	if err != nil {
		return Interaction{}, err
	}
	states, err := e.providerStates(node, "providerStates")
	if err != nil {
		return Interaction{}, err
	}
	request, err := e.request(node)
	if err != nil {
		return Interaction{}, err
	}
	response, err := e.response(node)
	if err != nil {
		return Interaction{}, err
	}
	return Interaction{
		Description:    description,
		ProviderStates: states,
		Request:        request,
		Response:       response,
	}, nil
}

func extractMessage(node map[string]interface{}) (Message, error) {
	e := extractor{container: containerMessage}
	description, err := e.text(node, "description", "description")
	if err != nil {
		return Message{}, err
	}
	states, err := e.providerStates(node, "providerStates")
	if err != nil {
		return Message{}, err
	}
	contents, err := e.body(node, "contents", "contents")
	if err != nil {
		return Message{}, err
	}
	metaData, err := e.stringMap(node, "metaData", "metaData")
	if err != nil {
		return Message{}, err
	}
	return Message{
		Description:    description,
		ProviderStates: states,
		Contents:       contents,
		MetaData:       metaData,
	}, nil
}

// elements returns the objects of a top level array such as "interactions".
func elements(doc map[string]interface{}, key string) ([]map[string]interface{}, error) {
	e := extractor{container: containerPact}
	value := doc[key]
	array, ok := value.([]interface{})
	if !ok {
		return nil, e.fail(key, value, "is not an array")
	}
	result := make([]map[string]interface{}, 0, len(array))
	for i, element := range array {
		obj, ok := element.(map[string]interface{})
		if !ok {
			return nil, e.fail(index(key, i), element, "is not an object")
		}
		result = append(result, obj)
	}
	return result, nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
