// Package zb builds and signs commands for the ZB exchange websocket API.
// Public market-data channels are sent as bare addChannel/removeChannel frames;
// private commands carry the access key and an HMAC-MD5 signature over the
// frame as serialized before the sign field is added.
//
// ZB API Documentation: https://www.zb.com/i/developer/websocketApi
package zb
